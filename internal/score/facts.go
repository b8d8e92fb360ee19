package score

import (
	"carfit/internal/hard"
	"carfit/internal/need"
	"carfit/internal/score/rule"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
)

// FactsBuilder produces rule activations for the records of one pool. The need
// list and the percentile map are shared by every activation it builds.
type FactsBuilder struct {
	needs []string
	dist  stats.Distribution
	p     map[string]float64
}

func NewFactsBuilder(needs need.Set, dist stats.Distribution) *FactsBuilder {
	return &FactsBuilder{
		needs: needs.Strings(),
		dist:  dist,
		p:     dist.Map(),
	}
}

// Build describes v for rule evaluation.
func (b *FactsBuilder) Build(v *vehicle.Vehicle) rule.Facts {
	return rule.Facts{
		"needs": b.needs,

		"brand":   v.Brand,
		"model":   v.Model,
		"segment": v.Segment,
		"fuel":    v.Fuel.Code(),

		"sedan":      v.IsSedan(),
		"hatch":      v.IsHatch(),
		"coupe":      v.IsCoupe(),
		"mpv":        v.IsMPV(),
		"suv":        v.IsSUV(),
		"pickup":     v.IsPickup(),
		"commercial": v.IsCommercial(),

		"awd":         v.AWD,
		"turbo":       v.Turbo,
		"matic":       v.IsMatic(),
		"electrified": v.Fuel.Electrified(),
		"efficient":   hard.IsEfficient(v),
		"small":       hard.IsSmall(v, b.dist),

		"price":     v.Price,
		"seats":     v.Seats,
		"doors":     v.Doors,
		"length":    v.LengthMM,
		"width":     v.WidthMM,
		"height":    v.HeightMM,
		"wheelbase": v.WheelbaseMM,
		"weight":    v.WeightKG,
		"cc":        v.CcKwh,
		"rim":       v.RimInch,
		"tyre":      v.TyreWidthMM,
		"pw":        v.PowerToWeight(),

		"p": b.p,
	}
}
