// Package diagnose explains why a ranking came back empty by re-running
// relaxed versions of the ranking stages.
package diagnose

import (
	"carfit/internal/need"
	"carfit/internal/rank"
	"carfit/internal/vehicle"
	"math"
)

// Reason codes of a Hint.
const (
	NoMatchFilters       = "NO_MATCH_FILTERS"
	NoMatchNeeds         = "NO_MATCH_NEEDS"
	BudgetTooLowForNeeds = "BUDGET_TOO_LOW_FOR_NEEDS"
	BudgetTooLow         = "BUDGET_TOO_LOW"
	ConstraintsTooStrict = "CONSTRAINTS_TOO_STRICT"
)

// BudgetStep is the rounding unit of a suggested budget.
const BudgetStep = 5_000_000

var messages = map[string]string{
	NoMatchFilters:       "No vehicle in the catalog matches the brand, transmission and fuel filters.",
	NoMatchNeeds:         "No vehicle in the catalog satisfies one or more of the selected needs.",
	BudgetTooLowForNeeds: "The budget is not enough for the selected needs.",
	BudgetTooLow:         "Every vehicle matching the filters is above the allowed price range.",
	ConstraintsTooStrict: "Budget and filters are fine, but the combination of needs rules out every candidate.",
}

// Limits are the price settings of the ranking that produced the empty result.
// *rank.Engine satisfies it.
type Limits interface {
	PriceCap() float64
	MinPriceGap() float64
}

// NeedDiag describes one need taken alone.
type NeedDiag struct {
	Need need.Need `json:"need"`
	// Total — records matching the filters and this need at any price.
	Total int `json:"total"`
	// UnderCap — records matching the filters and this need within the price window.
	UnderCap         int      `json:"under_cap"`
	MinPriceAll      *float64 `json:"min_price_all,omitempty"`
	MinPriceUnderCap *float64 `json:"min_price_under_cap,omitempty"`
}

// Hint is the diagnostic of an empty ranking.
type Hint struct {
	Reason           string     `json:"reason"`
	Message          string     `json:"message"`
	CurrentBudget    float64    `json:"current_budget"`
	MinPriceOverall  *float64   `json:"min_price_overall,omitempty"`
	MinPriceFiltered *float64   `json:"min_price_filtered,omitempty"`
	MaxPriceAllowed  float64    `json:"max_price_allowed"`
	SuggestedBudget  *float64   `json:"suggested_budget,omitempty"`
	PerNeed          []NeedDiag `json:"per_need,omitempty"`
}

// Explain computes the hint for req over pool.
func Explain(pool []vehicle.Vehicle, req rank.Request, limits Limits) Hint {
	capMul := limits.PriceCap()
	needs := need.NewSet(req.Needs...)

	priced := rank.PriceWindow(pool, math.Inf(1), 1, 0)
	filtered := rank.ByFuels(rank.ByTransmission(rank.ByBrand(priced, req.Filters.Brand),
		req.Filters.Transmission), req.Filters.Fuels)
	underCap := rank.PriceWindow(filtered, req.Budget, capMul, limits.MinPriceGap())

	h := Hint{
		CurrentBudget:    req.Budget,
		MinPriceOverall:  minPrice(priced),
		MinPriceFiltered: minPrice(filtered),
		MaxPriceAllowed:  capMul * req.Budget,
	}

	if len(filtered) == 0 {
		return h.with(NoMatchFilters)
	}

	for _, n := range needs {
		set := need.Set{n}
		all := rank.ByNeeds(filtered, set)
		within := rank.ByNeeds(underCap, set)
		h.PerNeed = append(h.PerNeed, NeedDiag{
			Need:             n,
			Total:            len(all),
			UnderCap:         len(within),
			MinPriceAll:      minPrice(all),
			MinPriceUnderCap: minPrice(within),
		})
	}

	var offending []float64
	noMatch := false
	for _, d := range h.PerNeed {
		switch {
		case d.Total == 0:
			noMatch = true
		case d.UnderCap == 0:
			offending = append(offending, *d.MinPriceAll)
		}
	}

	switch {
	case noMatch:
		return h.with(NoMatchNeeds)
	case len(offending) > 0:
		lowest := offending[0]
		for _, p := range offending[1:] {
			lowest = math.Min(lowest, p)
		}
		h.SuggestedBudget = suggest(lowest, capMul)
		return h.with(BudgetTooLowForNeeds)
	case len(underCap) == 0:
		h.SuggestedBudget = suggest(*h.MinPriceFiltered, capMul)
		return h.with(BudgetTooLow)
	}
	return h.with(ConstraintsTooStrict)
}

func (h Hint) with(reason string) Hint {
	h.Reason = reason
	h.Message = messages[reason]
	return h
}

// suggest is the smallest budget, rounded up to BudgetStep, whose price
// window reaches price.
func suggest(price, capMul float64) *float64 {
	b := math.Ceil(price/capMul/BudgetStep) * BudgetStep
	return &b
}

func minPrice(pool []vehicle.Vehicle) *float64 {
	if len(pool) == 0 {
		return nil
	}
	m := pool[0].Price
	for i := range pool[1:] {
		m = math.Min(m, pool[i+1].Price)
	}
	return &m
}
