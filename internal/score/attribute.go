package score

import (
	"carfit/internal/need"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
	"math"
)

// AttributeSet holds the per-need attribute scores of one record, each in [0,1].
type AttributeSet map[need.Need]float64

// Blend combines the scores of the requested needs with the need.Weights
// schedule. An empty need set blends to zero.
func (a AttributeSet) Blend(needs need.Set) float64 {
	weights := need.Weights(len(needs))

	var sum, total float64
	for i, w := range weights {
		s, ok := a[needs[i]]
		if !ok {
			continue
		}
		sum += w * s
		total += w
	}
	if total == 0 {
		return 0
	}
	return stats.Clip01(sum / total)
}

// Attributes scores every record of the pool for every need. The normalized
// sub-signals are scaled between the pool's 5th and 95th percentiles, with
// unknown values counted as neutral.
func Attributes(pool []vehicle.Vehicle, dist stats.Distribution) []AttributeSet {
	weights := stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.WeightKG })
	weightFilled := imputeMedian(weights)

	length := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.LengthMM }))
	width := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.WidthMM }))
	wheelbase := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.WheelbaseMM }))
	cc := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.CcKwh }))
	rim := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.RimInch }))
	tyre := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.TyreWidthMM }))
	weight := scaled(weightFilled)
	seats := scaled(stats.Column(pool, func(v *vehicle.Vehicle) float64 {
		if !vehicle.Known(v.Seats) {
			return v.Seats
		}
		return math.Min(v.Seats, 7)
	}))

	pwRaw := make([]float64, len(pool))
	for i := range pool {
		pwRaw[i] = vehicle.Unknown
		if vehicle.Known(pool[i].CcKwh) && weightFilled[i] > 0 {
			pwRaw[i] = pool[i].CcKwh / weightFilled[i]
		}
	}
	pw := scaled(pwRaw)

	out := make([]AttributeSet, len(pool))
	for i := range pool {
		v := &pool[i]
		electrified := flag(v.Fuel.Electrified())
		electric := v.Fuel == vehicle.FuelElectric

		efficiency := stats.Clip01(0.30*(1-cc[i]) + 0.20*(1-weight[i]) + 0.50*electrified)

		dim := 0.40*(1-width[i]) + 0.30*(1-length[i]) + 0.30*(1-weight[i])
		boost := efficiency
		if electric {
			dim = 0.30*(1-width[i]) + 0.20*(1-length[i]) + 0.50*(1-weight[i])
			boost = math.Min(1, efficiency*1.05)
		}
		city := 0.40*dim + 0.60*boost

		fun := 0.50*pw[i] + 0.15*rim[i] + 0.15*flag(v.Turbo) + 0.10*tyre[i] + 0.10*flag(v.AWD)

		family := 0.50*seats[i] + 0.30*flag(v.Doors >= 5) + 0.20*flag(v.IsMPV())
		if v.Seats >= 8 && stats.AtLeast(v.LengthMM, dist.LenP80) && vehicle.Known(dist.LenP80) {
			family *= 0.95
		}

		trip := 0.40*wheelbase[i] + 0.20*weight[i] + 0.20*length[i] +
			0.20*(0.8*flag(v.Fuel == vehicle.FuelDiesel)+0.2*efficiency)

		offroad := 0.45*flag(v.AWD) + 0.25*tyre[i] + 0.15*rim[i] + 0.15*flag(v.IsSUV() || v.IsPickup())

		commercial := 0.5*length[i] + 0.5*weight[i]

		out[i] = AttributeSet{
			need.City:       stats.Clip01(city),
			need.Fun:        stats.Clip01(fun),
			need.Family:     stats.Clip01(family),
			need.LongTrip:   stats.Clip01(trip),
			need.Offroad:    stats.Clip01(offroad),
			need.Commercial: stats.Clip01(commercial),
		}
	}
	return out
}

const neutralSignal = 0.5

func scaled(values []float64) []float64 {
	out := stats.Scale01(values)
	for i := range out {
		out[i] = stats.OrDefault(out[i], neutralSignal)
	}
	return out
}

func imputeMedian(values []float64) []float64 {
	median := stats.Median(values)
	if !vehicle.Known(median) {
		median = 0
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = stats.OrDefault(v, median)
	}
	return out
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
