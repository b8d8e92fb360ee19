package vehicle

import (
	"fmt"
	"regexp"
	"strings"
)

// Fuel is the closed set of fuel categories.
type Fuel string

const (
	FuelGasoline Fuel = "gasoline"
	FuelDiesel   Fuel = "diesel"
	FuelHybrid   Fuel = "hybrid"
	FuelPHEV     Fuel = "phev"
	FuelElectric Fuel = "electric"
	FuelOther    Fuel = "other"
)

// Fuels lists every category in a stable order.
var Fuels = []Fuel{FuelGasoline, FuelDiesel, FuelHybrid, FuelPHEV, FuelElectric, FuelOther}

var fuelCodes = map[Fuel]string{
	FuelGasoline: "g",
	FuelDiesel:   "d",
	FuelHybrid:   "h",
	FuelPHEV:     "p",
	FuelElectric: "e",
	FuelOther:    "o",
}

// IsValid reports whether f is one of the known categories.
func (f Fuel) IsValid() bool {
	_, ok := fuelCodes[f]
	return ok
}

// Code returns the single letter code used by policy expressions.
func (f Fuel) Code() string {
	if c, ok := fuelCodes[f]; ok {
		return c
	}
	return "o"
}

// Electrified is true for hybrid, plug-in hybrid and battery electric.
func (f Fuel) Electrified() bool {
	return f == FuelHybrid || f == FuelPHEV || f == FuelElectric
}

func (f Fuel) String() string {
	return string(f)
}

var (
	reNA       = regexp.MustCompile(`^(?:na|n/a|-)$`)
	rePlugIn   = regexp.MustCompile(`phev|plug-?in|plug in`)
	reHybrid   = regexp.MustCompile(`hybrid|\bhev\b`)
	reElectric = regexp.MustCompile(`\bbev\b|battery|electric|\bev\b`)
	reDiesel   = regexp.MustCompile(`diesel|\bdsl\b|solar`)
	reGasoline = regexp.MustCompile(`bensin|gasoline|petrol`)
)

// ParseFuel maps free text to a category. Short codes and enum names win, then
// plug-in markers, hybrid, electric, diesel and gasoline, in that order.
func ParseFuel(text string) Fuel {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" || reNA.MatchString(s) {
		return FuelOther
	}

	for f, c := range fuelCodes {
		if s == c || s == string(f) {
			return f
		}
	}

	switch {
	case rePlugIn.MatchString(s):
		return FuelPHEV
	case reHybrid.MatchString(s):
		return FuelHybrid
	case reElectric.MatchString(s):
		return FuelElectric
	case reDiesel.MatchString(s):
		return FuelDiesel
	case reGasoline.MatchString(s):
		return FuelGasoline
	}
	return FuelOther
}

// ParseFuelFilter parses a fuel requested by a client. Unlike ParseFuel it
// rejects text that names no category; "other" must be asked for explicitly.
func ParseFuelFilter(text string) (Fuel, error) {
	f := ParseFuel(text)
	if f == FuelOther {
		switch strings.ToLower(strings.TrimSpace(text)) {
		case string(FuelOther), fuelCodes[FuelOther]:
		default:
			return FuelOther, fmt.Errorf("unknown fuel '%s'", text)
		}
	}
	return f, nil
}

// Transmission is the requested gearbox category of a filter.
type Transmission string

const (
	TransmissionAny    Transmission = ""
	TransmissionMatic  Transmission = "matic"
	TransmissionManual Transmission = "manual"
)

var (
	reMatic  = regexp.MustCompile(`(?i)\b(?:AT|A/T|AUTO(?:MATIC)?|CVT|DCT|AMT|E-CVT|IVT|DSG|PDK)\b`)
	reManual = regexp.MustCompile(`(?i)\b(?:MT|M/T|MANUAL)\b`)
)

// IsMatic reports an automatic gearbox marker in the transmission or model text.
func (v *Vehicle) IsMatic() bool {
	return reMatic.MatchString(v.Transmission) || reMatic.MatchString(v.Model)
}

// IsManual reports a manual gearbox marker in the transmission or model text.
func (v *Vehicle) IsManual() bool {
	return reManual.MatchString(v.Transmission) || reManual.MatchString(v.Model)
}

// Matches reports whether v satisfies the transmission category. Any matches everything.
func (t Transmission) Matches(v *Vehicle) bool {
	switch t {
	case TransmissionMatic:
		return v.IsMatic()
	case TransmissionManual:
		return v.IsManual()
	}
	return true
}

// ParseTransmission accepts the category names and the common gearbox abbreviations.
// An empty string or "any" yields TransmissionAny.
func ParseTransmission(s string) (Transmission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return TransmissionAny, nil
	case "matic", "automatic", "auto", "at", "a/t", "cvt":
		return TransmissionMatic, nil
	case "manual", "mt", "m/t":
		return TransmissionManual, nil
	}
	return TransmissionAny, fmt.Errorf("unknown transmission '%s'", s)
}
