package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Facts is the CEL activation describing one candidate: its attributes, the
// requested needs and the percentile thresholds of the current pool.
type Facts map[string]any

// Rule represents a multiplicative adjustment applied to a candidate score.
// The When field contains a CEL expression that defines the trigger condition.
// The Factor field is the multiplier applied if the condition is true.
// The CEL program is compiled when Init is called and used during evaluation.
type Rule struct {
	// Name — short identifier reported in the score breakdown.
	Name string `yaml:"name"`
	// When — CEL expression defining the rule trigger condition.
	// Must return a boolean value.
	When string `yaml:"when"`
	// Factor — multiplier applied to the score if the condition is true.
	Factor float64 `yaml:"factor"`
	// program — compiled CEL program used to execute the condition.
	program cel.Program
}

// Init compiles the string expression in the When field into an executable CEL program
// using the provided env environment.
// In case of syntax or semantic errors, or a non-boolean expression, returns the corresponding error.
// After successful initialization, the rule is ready for use in Eval.
func (r *Rule) Init(env *cel.Env) error {
	ast, iss := env.Parse(r.When)
	if iss.Err() != nil {
		return iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return iss.Err()
	}

	if !checked.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("rule %q: expression must return bool, got %s", r.Name, checked.OutputType())
	}

	var err error
	r.program, err = env.Program(checked)
	if err != nil {
		return err
	}

	return nil
}

// Eval executes the compiled rule on the provided facts.
// If the expression returns false or an execution error occurs, (1, false) is returned,
// so a broken rule never changes a score.
// If the condition is true, the Factor is returned.
func (r *Rule) Eval(f Facts) (float64, bool) {
	if r.program == nil {
		return 1, false
	}

	result, _, err := r.program.Eval(map[string]any(f))
	if err != nil || result.Value() != true {
		return 1, false
	}

	return r.Factor, true
}
