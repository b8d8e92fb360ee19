package score

import (
	"carfit/internal/score/rule"
	"carfit/internal/stats"
	"errors"
	"fmt"
)

// Layer is a bounded multiplicative adjustment built from a set of rules.
// The factors of every matching rule are multiplied together and the product
// is clamped within the Min and Max boundaries.
type Layer struct {
	Min   float64     `yaml:"min"`   // lower bound of the product
	Max   float64     `yaml:"max"`   // upper bound of the product
	Rules []rule.Rule `yaml:"rules"` // rules evaluated in declaration order
}

// Init compiles every rule of the layer.
func (l *Layer) Init() error {
	return rule.InitAll(l.Rules, rule.NewVehicleEnv)
}

// Validate checks the bounds and the factors.
func (l *Layer) Validate() error {
	if l.Min <= 0 || l.Max <= 0 {
		return errors.New("bounds must be positive")
	}
	if l.Min > 1 || l.Max < 1 {
		return fmt.Errorf("bounds [%g, %g] must contain 1", l.Min, l.Max)
	}
	for i, r := range l.Rules {
		if r.Factor <= 0 {
			return fmt.Errorf("rule %d (%s): factor must be positive", i, r.Name)
		}
	}
	return nil
}

// Multiplier applies all rules to the facts and returns the clamped product
// together with the names of the rules that fired.
//
// A rule that fails to evaluate counts as not matched.
func (l *Layer) Multiplier(f rule.Facts) (float64, []string) {
	m := 1.0
	var fired []string

	for i := range l.Rules {
		factor, matched := l.Rules[i].Eval(f)
		if !matched {
			continue
		}
		m *= factor
		fired = append(fired, l.Rules[i].Name)
	}

	return stats.Clip(m, l.Min, l.Max), fired
}

// Adjustment is the outcome of both multiplier layers for one candidate.
type Adjustment struct {
	Soft       float64  `json:"soft"`
	Style      float64  `json:"style"`
	SoftRules  []string `json:"soft_rules,omitempty"`
	StyleRules []string `json:"style_rules,omitempty"`
}

// Apply multiplies fit by the soft and then the style multiplier, re-clipping
// to [0,1] after each step.
func (a Adjustment) Apply(fit float64) float64 {
	fit = stats.Clip01(fit * a.Soft)
	return stats.Clip01(fit * a.Style)
}
