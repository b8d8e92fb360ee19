package score

import (
	"carfit/internal/stats"
	"errors"
	"math"
)

// PriceBands are the budget multiples shaping the price-fit anchor.
type PriceBands struct {
	// Floor — below Floor×budget the anchor is zero.
	Floor float64 `yaml:"floor"`
	// Target — the anchor peaks at min(Target×budget, pool max price).
	Target float64 `yaml:"target"`
	// Shoulder — anchor value reached at exactly the budget.
	Shoulder float64 `yaml:"shoulder"`
	// Cap — at or above Cap×budget the anchor is zero; also the upstream price cap.
	Cap float64 `yaml:"cap"`
}

func DefaultPriceBands() PriceBands {
	return PriceBands{Floor: 0.6, Target: 0.9, Shoulder: 0.9, Cap: 1.15}
}

func (b PriceBands) Validate() error {
	if !(0 <= b.Floor && b.Floor < b.Target && b.Target <= 1 && b.Cap >= 1) {
		return errors.New("bands must satisfy 0 <= floor < target <= 1 <= cap")
	}
	if b.Shoulder < 0 || b.Shoulder > 1 {
		return errors.New("shoulder must be within [0,1]")
	}
	return nil
}

// Anchor scores price against budget. poolMax is the most expensive price of the pool.
//
//	price >= cap           -> 0
//	budget < price < cap   -> Shoulder falling linearly to 0
//	target <= price <= bud -> 1 falling linearly to Shoulder
//	price <= lo            -> 0
//	lo < price < target    -> 0 rising linearly to 1
func (b PriceBands) Anchor(price, budget, poolMax float64) float64 {
	if budget <= 0 || math.IsNaN(price) {
		return 0
	}

	lo := b.Floor * budget
	target := math.Min(b.Target*budget, math.Max(1, poolMax))
	limit := b.Cap * budget

	switch {
	case price >= limit:
		return 0
	case price > budget:
		return b.Shoulder * (limit - price) / (limit - budget)
	case price >= target:
		if budget <= target {
			return 1
		}
		return 1 - (1-b.Shoulder)*(price-target)/(budget-target)
	case price <= lo:
		return 0
	default:
		return (price - lo) / (target - lo)
	}
}

// PriceFit averages a pool-relative rank (position between the pool's 10th and
// 90th price percentile) with the budget anchor.
func PriceFit(prices []float64, budget float64, bands PriceBands) []float64 {
	p10 := stats.PercentileOr(prices, 10, 0)
	p90 := stats.PercentileOr(prices, 90, 0)
	poolMax := stats.PercentileOr(prices, 100, 0)
	span := math.Max(1, p90-p10)

	out := make([]float64, len(prices))
	for i, p := range prices {
		if math.IsNaN(p) {
			continue
		}
		rank := stats.Clip01((p - p10) / span)
		out[i] = 0.5*rank + 0.5*bands.anchorClipped(p, budget, poolMax)
	}
	return out
}

func (b PriceBands) anchorClipped(price, budget, poolMax float64) float64 {
	return stats.Clip01(b.Anchor(price, budget, poolMax))
}
