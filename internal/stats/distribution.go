package stats

import (
	"carfit/internal/vehicle"
	"math"
)

// minDecileSamples is the smallest column for which a bottom decile is meaningful.
const minDecileSamples = 10

// Distribution holds the percentile thresholds of one candidate pool. It is
// computed once per pool by Describe and passed explicitly to the hard filter
// and the scorers. A threshold is NaN when the pool has no known value for the
// column; use AtLeast, AtMost and Below to get the infinite fallbacks.
type Distribution struct {
	LenP10 float64
	LenP40 float64
	LenP50 float64
	LenP60 float64
	LenP70 float64
	LenP80 float64
	LenP90 float64

	WidP10 float64
	WidP40 float64
	WidP50 float64
	WidP60 float64

	WgtP50 float64
	WgtP60 float64

	WbP60 float64
	WbP70 float64

	RimP60  float64
	TyreP60 float64

	// PwP55 and PwP60 are percentiles of the cc-per-kg power proxy.
	PwP55 float64
	PwP60 float64

	PriceP10 float64
	PriceP90 float64
	PriceMax float64
}

// Describe computes the distribution stats of pool.
func Describe(pool []vehicle.Vehicle) Distribution {
	length := Column(pool, func(v *vehicle.Vehicle) float64 { return v.LengthMM })
	width := Column(pool, func(v *vehicle.Vehicle) float64 { return v.WidthMM })
	weight := Column(pool, func(v *vehicle.Vehicle) float64 { return v.WeightKG })
	wheelbase := Column(pool, func(v *vehicle.Vehicle) float64 { return v.WheelbaseMM })
	rim := Column(pool, func(v *vehicle.Vehicle) float64 { return v.RimInch })
	tyre := Column(pool, func(v *vehicle.Vehicle) float64 { return v.TyreWidthMM })
	pw := Column(pool, func(v *vehicle.Vehicle) float64 { return v.PowerToWeight() })
	price := Column(pool, func(v *vehicle.Vehicle) float64 { return v.Price })

	nan := math.NaN()
	d := Distribution{
		LenP40: PercentileOr(length, 40, nan),
		LenP50: PercentileOr(length, 50, nan),
		LenP60: PercentileOr(length, 60, nan),
		LenP70: PercentileOr(length, 70, nan),
		LenP80: PercentileOr(length, 80, nan),
		LenP90: PercentileOr(length, 90, nan),

		WidP40: PercentileOr(width, 40, nan),
		WidP50: PercentileOr(width, 50, nan),
		WidP60: PercentileOr(width, 60, nan),

		WgtP50: PercentileOr(weight, 50, nan),
		WgtP60: PercentileOr(weight, 60, nan),

		WbP60: PercentileOr(wheelbase, 60, nan),
		WbP70: PercentileOr(wheelbase, 70, nan),

		RimP60:  PercentileOr(rim, 60, nan),
		TyreP60: PercentileOr(tyre, 60, nan),

		PwP55: PercentileOr(pw, 55, nan),
		PwP60: PercentileOr(pw, 60, nan),

		PriceP10: PercentileOr(price, 10, nan),
		PriceP90: PercentileOr(price, 90, nan),
		PriceMax: PercentileOr(price, 100, nan),

		LenP10: nan,
		WidP10: nan,
	}

	if CountKnown(length) >= minDecileSamples {
		d.LenP10 = PercentileOr(length, 10, nan)
	}
	if CountKnown(width) >= minDecileSamples {
		d.WidP10 = PercentileOr(width, 10, nan)
	}

	return d
}

// Map exposes the thresholds by name for rule expressions.
func (d Distribution) Map() map[string]float64 {
	return map[string]float64{
		"len_p10":   d.LenP10,
		"len_p40":   d.LenP40,
		"len_p50":   d.LenP50,
		"len_p60":   d.LenP60,
		"len_p70":   d.LenP70,
		"len_p80":   d.LenP80,
		"len_p90":   d.LenP90,
		"wid_p10":   d.WidP10,
		"wid_p40":   d.WidP40,
		"wid_p50":   d.WidP50,
		"wid_p60":   d.WidP60,
		"wgt_p50":   d.WgtP50,
		"wgt_p60":   d.WgtP60,
		"wb_p60":    d.WbP60,
		"wb_p70":    d.WbP70,
		"rim_p60":   d.RimP60,
		"tyre_p60":  d.TyreP60,
		"pw_p55":    d.PwP55,
		"pw_p60":    d.PwP60,
		"price_p10": d.PriceP10,
		"price_p90": d.PriceP90,
	}
}

// AtLeast reports x >= threshold. A missing threshold acts as -Inf; unknown x is false.
func AtLeast(x, threshold float64) bool {
	if !vehicle.Known(x) {
		return false
	}
	if math.IsNaN(threshold) {
		return true
	}
	return x >= threshold
}

// AtMost reports x <= threshold. A missing threshold acts as +Inf; unknown x is false.
func AtMost(x, threshold float64) bool {
	if !vehicle.Known(x) {
		return false
	}
	if math.IsNaN(threshold) {
		return true
	}
	return x <= threshold
}

// Below reports x < threshold. A missing threshold acts as -Inf, so nothing is below it.
func Below(x, threshold float64) bool {
	if !vehicle.Known(x) || math.IsNaN(threshold) {
		return false
	}
	return x < threshold
}
