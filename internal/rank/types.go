package rank

import (
	"carfit/internal/need"
	"carfit/internal/vehicle"
)

// DefaultTopN is used when a request asks for a non-positive number of items.
const DefaultTopN = 15

// Stage names reported in Result.EmptyAt and Result.Pool.
const (
	StagePrice        = "price"
	StageBrand        = "brand"
	StageTransmission = "transmission"
	StageFuel         = "fuel"
	StageHard         = "hard"
	StageInternal     = "internal"
)

// Filters narrow the pool before any scoring takes place.
type Filters struct {
	// Brand — brand name or alias, matched tolerantly. Empty keeps every brand.
	Brand string `json:"brand,omitempty"`
	// Transmission — gearbox category. Empty keeps every record.
	Transmission vehicle.Transmission `json:"transmission,omitempty"`
	// Fuels — allowed fuel categories. Applied only when it names between one
	// and four concrete categories.
	Fuels []vehicle.Fuel `json:"fuels,omitempty"`
}

// Request is one ranking call.
type Request struct {
	Budget  float64  `json:"budget"`
	Needs   need.Set `json:"needs"`
	Filters Filters  `json:"filters"`
	TopN    int      `json:"topn"`
}

// Breakdown explains how a candidate's score was assembled.
type Breakdown struct {
	Attributes map[need.Need]float64 `json:"attributes"`
	Attribute  float64               `json:"attribute"`
	Similarity float64               `json:"similarity"`
	Preference float64               `json:"preference"`
	PriceFit   float64               `json:"price_fit"`
	// Raw — fit score before the multipliers.
	Raw        float64   `json:"raw"`
	Soft       float64   `json:"soft"`
	Style      float64   `json:"style"`
	SoftRules  []string  `json:"soft_rules,omitempty"`
	StyleRules []string  `json:"style_rules,omitempty"`
	Cluster    need.Need `json:"cluster,omitempty"`
}

// Candidate is one ranked record.
type Candidate struct {
	Vehicle   vehicle.Vehicle `json:"vehicle"`
	FitScore  float64         `json:"fit_score"`
	Rank      int             `json:"rank"`
	Points    int             `json:"points"`
	Reasons   []string        `json:"reasons,omitempty"`
	Breakdown Breakdown       `json:"breakdown"`
}

// Result is the outcome of a ranking call. An empty result is not an error:
// EmptyAt names the stage that removed the last record.
type Result struct {
	Needs   need.Set       `json:"needs"`
	Items   []Candidate    `json:"items"`
	EmptyAt string         `json:"empty_at,omitempty"`
	Pool    map[string]int `json:"pool"`
}

// Empty reports whether the result carries no candidates.
func (r *Result) Empty() bool {
	return len(r.Items) == 0
}
