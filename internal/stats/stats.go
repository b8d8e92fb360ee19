package stats

import (
	"carfit/internal/vehicle"
	"math"
	"sort"
)

// Percentile returns the q-th percentile (0..100) of the known values using
// linear interpolation between closest ranks. The second result is false when
// no known value exists.
func Percentile(values []float64, q float64) (float64, bool) {
	known := knownSorted(values)
	if len(known) == 0 {
		return 0, false
	}
	return percentileSorted(known, q), true
}

// PercentileOr is Percentile with a fallback for columns without known values.
func PercentileOr(values []float64, q, fallback float64) float64 {
	if p, ok := Percentile(values, q); ok {
		return p
	}
	return fallback
}

// Median of the known values, or NaN.
func Median(values []float64) float64 {
	return PercentileOr(values, 50, math.NaN())
}

func knownSorted(values []float64) []float64 {
	known := make([]float64, 0, len(values))
	for _, v := range values {
		if vehicle.Known(v) {
			known = append(known, v)
		}
	}
	sort.Float64s(known)
	return known
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Scale01 maps each known value linearly so that the 5th percentile becomes 0
// and the 95th becomes 1, clipping outside. Unknown values map to NaN; a column
// without known values maps to 0.5 everywhere.
func Scale01(values []float64) []float64 {
	out := make([]float64, len(values))
	known := knownSorted(values)
	if len(known) == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	lo := percentileSorted(known, 5)
	hi := percentileSorted(known, 95)
	span := math.Max(hi-lo, 1e-6)
	for i, v := range values {
		if !vehicle.Known(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = Clip01((v - lo) / span)
	}
	return out
}

// Clip01 bounds x to [0,1]. NaN stays NaN.
func Clip01(x float64) float64 {
	return Clip(x, 0, 1)
}

// Clip bounds x to [lo,hi]. NaN stays NaN.
func Clip(x, lo, hi float64) float64 {
	switch {
	case x < lo:
		return lo
	case x > hi:
		return hi
	default:
		return x
	}
}

// OrDefault returns x if known, otherwise d.
func OrDefault(x, d float64) float64 {
	if vehicle.Known(x) {
		return x
	}
	return d
}

// Column extracts one attribute across the pool.
func Column(pool []vehicle.Vehicle, get func(*vehicle.Vehicle) float64) []float64 {
	out := make([]float64, len(pool))
	for i := range pool {
		out[i] = get(&pool[i])
	}
	return out
}

// CountKnown returns how many values are usable.
func CountKnown(values []float64) int {
	n := 0
	for _, v := range values {
		if vehicle.Known(v) {
			n++
		}
	}
	return n
}
