package rule

import "github.com/google/cel-go/cel"

// NewVehicleEnv creates a CEL environment for candidate facts. It declares the
// variables that adjustment rules can reference; every numeric attribute is a
// double and is NaN when unknown, so any comparison against it is false.
func NewVehicleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("needs", cel.ListType(cel.StringType)),

		cel.Variable("brand", cel.StringType),
		cel.Variable("model", cel.StringType),
		cel.Variable("segment", cel.StringType),
		cel.Variable("fuel", cel.StringType),

		cel.Variable("sedan", cel.BoolType),
		cel.Variable("hatch", cel.BoolType),
		cel.Variable("coupe", cel.BoolType),
		cel.Variable("mpv", cel.BoolType),
		cel.Variable("suv", cel.BoolType),
		cel.Variable("pickup", cel.BoolType),
		cel.Variable("commercial", cel.BoolType),

		cel.Variable("awd", cel.BoolType),
		cel.Variable("turbo", cel.BoolType),
		cel.Variable("matic", cel.BoolType),
		cel.Variable("electrified", cel.BoolType),
		cel.Variable("efficient", cel.BoolType),
		cel.Variable("small", cel.BoolType),

		cel.Variable("price", cel.DoubleType),
		cel.Variable("seats", cel.DoubleType),
		cel.Variable("doors", cel.DoubleType),
		cel.Variable("length", cel.DoubleType),
		cel.Variable("width", cel.DoubleType),
		cel.Variable("height", cel.DoubleType),
		cel.Variable("wheelbase", cel.DoubleType),
		cel.Variable("weight", cel.DoubleType),
		cel.Variable("cc", cel.DoubleType),
		cel.Variable("rim", cel.DoubleType),
		cel.Variable("tyre", cel.DoubleType),
		cel.Variable("pw", cel.DoubleType),

		// p holds the pool percentiles, e.g. p.len_p70
		cel.Variable("p", cel.MapType(cel.StringType, cel.DoubleType)),
	)
}
