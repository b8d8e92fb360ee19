package vehicle

import (
	"math"
	"regexp"
	"strings"
)

// Vehicle is one normalized catalog record. Unknown numeric attributes are NaN.
// A Vehicle is created once per catalog load and treated as immutable afterwards.
type Vehicle struct {
	// Index — position of the record in the catalog, used for stable tie breaking.
	Index int `json:"index"`
	// Brand — manufacturer name as it appears in the catalog.
	Brand string `json:"brand"`
	// Model — model and trim text.
	Model string `json:"model"`
	// Price — on-the-road price, currency agnostic.
	Price float64 `json:"price"`

	Seats   float64 `json:"seats"`
	Doors   float64 `json:"doors"`
	Segment string  `json:"segment"`

	LengthMM    float64 `json:"length_mm"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	WheelbaseMM float64 `json:"wheelbase_mm"`
	WeightKG    float64 `json:"weight_kg"`
	// CcKwh — engine displacement in cc or battery capacity in kWh.
	CcKwh       float64 `json:"cc_kwh"`
	RimInch     float64 `json:"rim_inch"`
	TyreWidthMM float64 `json:"tyre_width_mm"`

	AWD          bool   `json:"awd"`
	Fuel         Fuel   `json:"fuel"`
	Transmission string `json:"transmission"`
	// Turbo — forced induction hint found in the trim text.
	Turbo bool `json:"turbo"`
}

// Unknown is the value of a numeric attribute that is absent or unparsable.
var Unknown = math.NaN()

// Known reports whether x holds a usable value.
func Known(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// PowerToWeight is the cc (or kWh) per kilogram proxy. Unknown when either side is unknown.
func (v *Vehicle) PowerToWeight() float64 {
	if !Known(v.CcKwh) || !Known(v.WeightKG) {
		return Unknown
	}
	return v.CcKwh / math.Max(v.WeightKG, 1)
}

var (
	segSedan  = regexp.MustCompile(`(?i)\bsedan\b`)
	segHatch  = regexp.MustCompile(`(?i)\bhatch`)
	segCoupe  = regexp.MustCompile(`(?i)\bcoupe\b`)
	segMPV    = regexp.MustCompile(`(?i)\b(?:mpv|van|minibus)\b`)
	segSUV    = regexp.MustCompile(`(?i)\b(?:suv|crossover)\b`)
	segPickup = regexp.MustCompile(`(?i)\b(?:pick\s*up|pickup|pu|light\s*truck|chassis)\b`)
	segRows3  = regexp.MustCompile(`(?i)\b(?:mpv|suv|van|minibus)\b`)

	commercialPattern = regexp.MustCompile(`(?i)\b(?:pick\s*up|pickup|pu|box|blind\s*van|blindvan|niaga|light\s*truck|chassis|cab\s*/?\s*chassis|minibus)\b`)
	truckPattern      = regexp.MustCompile(`(?i)\b(?:box|blind\s*van|blindvan|light\s*truck|truck|chassis|cab\s*/?\s*chassis)\b`)
	twoDoorPattern    = regexp.MustCompile(`(?i)\b(?:2[\s\-]?door|2dr|two\s*door)\b`)
)

func (v *Vehicle) IsSedan() bool  { return segSedan.MatchString(v.Segment) }
func (v *Vehicle) IsHatch() bool  { return segHatch.MatchString(v.Segment) }
func (v *Vehicle) IsCoupe() bool  { return segCoupe.MatchString(v.Segment) }
func (v *Vehicle) IsMPV() bool    { return segMPV.MatchString(v.Segment) }
func (v *Vehicle) IsSUV() bool    { return segSUV.MatchString(v.Segment) }
func (v *Vehicle) IsPickup() bool { return segPickup.MatchString(v.Segment) }

// HasThreeRowHint reports body types that usually come with a third seat row.
func (v *Vehicle) HasThreeRowHint() bool { return segRows3.MatchString(v.Segment) }

// IsCommercial matches pickup, box, blind van, light truck, chassis and minibus bodies.
func (v *Vehicle) IsCommercial() bool {
	return commercialPattern.MatchString(v.Segment)
}

// IsTruck is the goods-only subset of IsCommercial.
func (v *Vehicle) IsTruck() bool {
	return truckPattern.MatchString(v.Segment)
}

// HasTwoDoorHint looks for "2 door" style markers in the trim text or a coupe body.
func (v *Vehicle) HasTwoDoorHint() bool {
	return twoDoorPattern.MatchString(v.Model) || v.IsCoupe()
}

// NormalizedModel is the lowercase model text with runs of whitespace collapsed.
func (v *Vehicle) NormalizedModel() string {
	return strings.Join(strings.Fields(strings.ToLower(v.Model)), " ")
}
