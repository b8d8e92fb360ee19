package cluster

import (
	"carfit/internal/need"
	"fmt"
	"math"
)

// Term is one attribute of a centroid profile that a label rule can weigh.
type Term string

const (
	TermLength      Term = "length"
	TermWidth       Term = "width"
	TermWheelbase   Term = "wheelbase"
	TermWeight      Term = "weight"
	TermCc          Term = "cc"
	TermCcPerWeight Term = "cc_per_weight"
	TermRim         Term = "rim"
	// TermAWD is the raw AWD share of the centroid, not z-scored.
	TermAWD Term = "awd"
)

// terms fixes the summation order so labelling is reproducible.
var terms = []Term{TermLength, TermWidth, TermWheelbase, TermWeight, TermCc, TermCcPerWeight, TermRim, TermAWD}

// LabelRule scores centroids for one need as a weighted sum of terms.
type LabelRule struct {
	Need    need.Need        `yaml:"need"`
	Weights map[Term]float64 `yaml:"weights"`
}

// LabelPolicy is the table used to name centroids. Each centroid takes the need
// of the highest scoring rule; ties go to the earlier rule.
type LabelPolicy []LabelRule

// DefaultLabelPolicy profiles: long wheelbase and weight for trips, footprint for
// families, power-to-weight for fun, small footprint for the city, mass without
// power for commercial use and AWD for off-road.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		{Need: need.LongTrip, Weights: map[Term]float64{TermWheelbase: 0.6, TermWeight: 0.3, TermCc: 0.2}},
		{Need: need.Family, Weights: map[Term]float64{TermWheelbase: 0.5, TermLength: 0.4, TermWidth: 0.3}},
		{Need: need.Fun, Weights: map[Term]float64{TermCcPerWeight: 0.6, TermCc: 0.4, TermWeight: -0.1}},
		{Need: need.City, Weights: map[Term]float64{TermLength: -0.5, TermWidth: -0.5}},
		{Need: need.Commercial, Weights: map[Term]float64{TermWeight: 0.5, TermCc: -0.3, TermRim: -0.3}},
		{Need: need.Offroad, Weights: map[Term]float64{TermAWD: 2.5, TermRim: 0.4, TermLength: -0.2}},
	}
}

// Validate checks that every rule names a known need and known terms.
func (p LabelPolicy) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("label policy: no rules")
	}
	known := make(map[Term]bool, len(terms))
	for _, t := range terms {
		known[t] = true
	}
	for i, r := range p {
		if !r.Need.IsValid() {
			return fmt.Errorf("label policy: rule %d: unknown need '%s'", i, r.Need)
		}
		for t := range r.Weights {
			if !known[t] {
				return fmt.Errorf("label policy: rule %d: unknown term '%s'", i, t)
			}
		}
	}
	return nil
}

// Label names each raw (unstandardized) centroid. Rows follow the Features column order.
func (p LabelPolicy) Label(raw [][]float64) []need.Need {
	profile := centroidProfiles(raw)

	labels := make([]need.Need, len(raw))
	for c := range raw {
		best, bestScore := 0, math.Inf(-1)
		for r, rule := range p {
			var s float64
			for _, t := range terms {
				if w, ok := rule.Weights[t]; ok {
					s += w * profile[t][c]
				}
			}
			if s > bestScore {
				best, bestScore = r, s
			}
		}
		labels[c] = p[best].Need
	}
	return labels
}

// centroidProfiles computes every term per centroid. Terms other than AWD are
// z-scored across centroids, so a single centroid profiles as all zeros.
func centroidProfiles(raw [][]float64) map[Term][]float64 {
	col := func(name string) []float64 {
		j := featureIndex[name]
		out := make([]float64, len(raw))
		for c := range raw {
			out[c] = raw[c][j]
		}
		return out
	}

	weight := col("weight")
	cc := col("cc")
	ccPerWeight := make([]float64, len(raw))
	for c := range raw {
		ccPerWeight[c] = cc[c] / math.Max(weight[c], 1)
	}

	return map[Term][]float64{
		TermLength:      zscore(col("length")),
		TermWidth:       zscore(col("width")),
		TermWheelbase:   zscore(col("wheelbase")),
		TermWeight:      zscore(weight),
		TermCc:          zscore(cc),
		TermCcPerWeight: zscore(ccPerWeight),
		TermRim:         zscore(col("rim")),
		TermAWD:         col("awd"),
	}
}

func zscore(v []float64) []float64 {
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))

	var sq float64
	for _, x := range v {
		sq += (x - mean) * (x - mean)
	}
	sd := math.Sqrt(sq/float64(len(v))) + 1e-9

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - mean) / sd
	}
	return out
}
