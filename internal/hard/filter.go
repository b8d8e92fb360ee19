package hard

import (
	"carfit/internal/need"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
)

const (
	busSeats            = 8
	familySeats         = 6
	familySeatsWithCity = 5
	spaciousWidthMM     = 1700
	spaciousWheelbaseMM = 2500
	compactSedanWidthMM = 1650
	efficientMaxCc      = 1500
	fastMinCc           = 1500
	fastMinRimInch      = 17
	fastMinTyreMM       = 205
	minDoors            = 4
)

// Mask evaluates Eligible for every record of pool. The distribution must be
// computed from the same pool.
func Mask(pool []vehicle.Vehicle, needs need.Set, dist stats.Distribution) []bool {
	mask := make([]bool, len(pool))
	for i := range pool {
		mask[i] = Eligible(&pool[i], needs, dist)
	}
	return mask
}

// Eligible is the conjunction of every rule that applies to needs.
// Records with busSeats or more seats are offered only for commercial use,
// with or without other needs. Apart from that an empty need set accepts everything.
func Eligible(v *vehicle.Vehicle, needs need.Set, dist stats.Distribution) bool {
	commercialUse := needs.Has(need.Commercial)
	if !commercialUse && vehicle.Known(v.Seats) && v.Seats >= busSeats {
		return false
	}
	if len(needs) == 0 {
		return true
	}

	if !commercialUse && v.IsCommercial() {
		return false
	}

	for _, n := range needs {
		if r, ok := rules[n]; ok && !r(v, needs, dist) {
			return false
		}
	}
	return true
}

type rule func(v *vehicle.Vehicle, needs need.Set, dist stats.Distribution) bool

var rules = map[need.Need]rule{
	need.LongTrip:   func(*vehicle.Vehicle, need.Set, stats.Distribution) bool { return true },
	need.Family:     family,
	need.Fun:        fun,
	need.City:       city,
	need.Commercial: commercial,
	need.Offroad:    offroad,
}

func family(v *vehicle.Vehicle, needs need.Set, dist stats.Distribution) bool {
	if !vehicle.Known(v.Seats) {
		return v.HasThreeRowHint() &&
			stats.AtLeast(v.WheelbaseMM, dist.WbP60) &&
			stats.AtLeast(v.LengthMM, dist.LenP60)
	}

	minSeats := float64(familySeats)
	if needs.Has(need.City) {
		minSeats = familySeatsWithCity
	}
	if v.Seats < minSeats {
		return false
	}

	// a five-seater only counts as family-sized when it is not cramped
	if v.Seats < familySeats {
		return !vehicle.Known(v.WidthMM) ||
			v.WidthMM >= spaciousWidthMM ||
			(vehicle.Known(v.WheelbaseMM) && v.WheelbaseMM >= spaciousWheelbaseMM)
	}
	return true
}

func offroad(v *vehicle.Vehicle, _ need.Set, _ stats.Distribution) bool {
	return !v.IsSedan() && v.AWD
}

func city(v *vehicle.Vehicle, _ need.Set, dist stats.Distribution) bool {
	if v.IsTruck() || IsMicrocar(v, dist) {
		return false
	}
	return IsSmall(v, dist) || IsEfficient(v) || isCompactSedan(v, dist)
}

func fun(v *vehicle.Vehicle, needs need.Set, dist stats.Distribution) bool {
	if !IsFast(v, dist) {
		return false
	}
	if needs.Has(need.City) && v.IsMPV() {
		return false
	}
	if needs.Has(need.City) && needs.Has(need.Family) {
		if vehicle.Known(v.Doors) {
			return v.Doors >= minDoors
		}
		return !v.HasTwoDoorHint()
	}
	return true
}

func commercial(v *vehicle.Vehicle, _ need.Set, _ stats.Distribution) bool {
	return v.IsCommercial()
}

// IsSmall is true when length, width and weight are each at or below the pool's
// 60th percentile. An unknown attribute does not disqualify.
func IsSmall(v *vehicle.Vehicle, dist stats.Distribution) bool {
	within := func(x, p float64) bool {
		return !vehicle.Known(x) || stats.AtMost(x, p)
	}
	return within(v.LengthMM, dist.LenP60) &&
		within(v.WidthMM, dist.WidP60) &&
		within(v.WeightKG, dist.WgtP60)
}

// IsEfficient is true for electrified drivetrains and small or unknown displacement.
func IsEfficient(v *vehicle.Vehicle) bool {
	if v.Fuel.Electrified() {
		return true
	}
	return !vehicle.Known(v.CcKwh) || v.CcKwh <= efficientMaxCc
}

// IsMicrocar is true for records in the bottom decile of both length and width.
func IsMicrocar(v *vehicle.Vehicle, dist stats.Distribution) bool {
	return stats.Below(v.LengthMM, dist.LenP10) && stats.Below(v.WidthMM, dist.WidP10)
}

func isCompactSedan(v *vehicle.Vehicle, dist stats.Distribution) bool {
	return v.IsSedan() &&
		vehicle.Known(v.WidthMM) && v.WidthMM >= compactSedanWidthMM &&
		(!vehicle.Known(v.LengthMM) || stats.AtMost(v.LengthMM, dist.LenP70))
}

// IsFast is the composite "fast enough" signal. Turbo and electrified drivetrains
// qualify outright; otherwise a 1.5l+ engine needs a strong power proxy or big wheels.
func IsFast(v *vehicle.Vehicle, dist stats.Distribution) bool {
	if v.Turbo || v.Fuel.Electrified() {
		return true
	}
	if !vehicle.Known(v.CcKwh) || v.CcKwh < fastMinCc {
		return false
	}
	return stats.AtLeast(v.PowerToWeight(), dist.PwP55) ||
		(vehicle.Known(v.RimInch) && v.RimInch >= fastMinRimInch) ||
		(vehicle.Known(v.TyreWidthMM) && v.TyreWidthMM >= fastMinTyreMM)
}
