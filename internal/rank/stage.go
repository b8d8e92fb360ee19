package rank

import (
	"carfit/internal/hard"
	"carfit/internal/need"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
	"regexp"
	"strings"
)

// The stage functions below return a new slice and never modify pool. They
// are exported so that callers can re-run relaxed versions of the pipeline.

// PriceWindow keeps records priced at most capMul×budget. A positive minGap
// also drops records cheaper than budget-minGap.
func PriceWindow(pool []vehicle.Vehicle, budget, capMul, minGap float64) []vehicle.Vehicle {
	limit := capMul * budget
	floor := 0.0
	if minGap > 0 {
		floor = max(0, budget-minGap)
	}
	return keep(pool, func(v *vehicle.Vehicle) bool {
		return vehicle.Known(v.Price) && v.Price <= limit && v.Price >= floor
	})
}

// ByBrand keeps records whose normalized brand contains the normalized term.
func ByBrand(pool []vehicle.Vehicle, term string) []vehicle.Vehicle {
	if strings.TrimSpace(term) == "" {
		return pool
	}
	want := NormalizeBrand(term)
	return keep(pool, func(v *vehicle.Vehicle) bool {
		return BrandMatches(v.Brand, want)
	})
}

// ByTransmission keeps records whose gearbox matches t.
func ByTransmission(pool []vehicle.Vehicle, t vehicle.Transmission) []vehicle.Vehicle {
	if t == vehicle.TransmissionAny {
		return pool
	}
	return keep(pool, t.Matches)
}

// ByFuels keeps records of the requested fuels. "other" never counts as a
// requested fuel, and a selection of five or more categories is no filter.
func ByFuels(pool []vehicle.Vehicle, fuels []vehicle.Fuel) []vehicle.Vehicle {
	want := make(map[vehicle.Fuel]bool, len(fuels))
	for _, f := range fuels {
		if f.IsValid() && f != vehicle.FuelOther {
			want[f] = true
		}
	}
	if len(want) == 0 || len(want) >= 5 {
		return pool
	}
	return keep(pool, func(v *vehicle.Vehicle) bool {
		return want[v.Fuel]
	})
}

// ByNeeds applies the hard constraints, using percentiles of pool itself.
func ByNeeds(pool []vehicle.Vehicle, needs need.Set) []vehicle.Vehicle {
	mask := hard.Mask(pool, needs, stats.Describe(pool))
	out := make([]vehicle.Vehicle, 0, len(pool))
	for i := range pool {
		if mask[i] {
			out = append(out, pool[i])
		}
	}
	return out
}

func keep(pool []vehicle.Vehicle, pred func(*vehicle.Vehicle) bool) []vehicle.Vehicle {
	out := make([]vehicle.Vehicle, 0, len(pool))
	for i := range pool {
		if pred(&pool[i]) {
			out = append(out, pool[i])
		}
	}
	return out
}

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	brandAliases = map[string]string{
		"vw":       "volkswagen",
		"mercy":    "mercedesbenz",
		"mercedes": "mercedesbenz",
		"benz":     "mercedesbenz",
		"mb":       "mercedesbenz",
		"bimmer":   "bmw",
		"chevy":    "chevrolet",
		"lr":       "landrover",
	}
)

// NormalizeBrand lowercases, strips everything but letters and digits and
// collapses repeated characters, so "Tooyota" and "toyota" compare equal.
func NormalizeBrand(s string) string {
	t := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")

	var b strings.Builder
	var prev rune
	for i, r := range t {
		if i > 0 && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	t = b.String()

	if alias, ok := brandAliases[t]; ok {
		return NormalizeBrand(alias)
	}
	return t
}

// BrandMatches reports whether brand matches an already normalized term.
// Terms of fewer than three characters must match exactly.
func BrandMatches(brand, term string) bool {
	got := NormalizeBrand(brand)
	if len(term) < 3 {
		return got == term
	}
	return strings.Contains(got, term)
}
