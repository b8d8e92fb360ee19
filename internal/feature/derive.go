package feature

import (
	"carfit/internal/vehicle"
	"encoding/json"
	"fmt"
	"strings"
)

// Raw is one catalog row with free-form column names.
type Raw map[string]any

// Column aliases, in lookup priority order. Keys are compared in lower case with
// whitespace collapsed.
var aliases = map[string][]string{
	"brand":        {"brand", "merek", "make"},
	"model":        {"model", "type model", "type", "variant"},
	"price":        {"price", "harga otr (idr)", "harga", "otr"},
	"seats":        {"seats", "seat", "kursi", "seating capacity"},
	"doors":        {"doors", "door", "pintu"},
	"segment":      {"segmentasi", "segment", "body_type", "body type"},
	"dimensions":   {"dimension p x l x t", "dimensions", "dimension"},
	"length":       {"length_mm", "length"},
	"width":        {"width_mm", "width"},
	"height":       {"height_mm", "height"},
	"wheelbase":    {"wheelbase", "wheelbase_mm", "wheel base"},
	"wheel":        {"wheel & tyre size", "wheel", "tyre size", "tyre"},
	"rim":          {"rim_inch", "rim"},
	"tyre_width":   {"tyre_w_mm", "tyre_width_mm"},
	"weight":       {"vehicle_weight", "vehicle_weight_kg", "weight", "curb_weight", "kerb weight"},
	"cc":           {"cc_kwh", "cc / kwh", "cc", "battery_kwh", "engine cc"},
	"drive":        {"drive_sys", "drive sys", "drive", "drivetrain"},
	"fuel":         {"fuel", "fuel type", "bahan bakar"},
	"transmission": {"trans", "transmission", "transmisi"},
}

// Derive parses one raw row into a normalized vehicle. It never fails: every
// absent or unparsable attribute becomes vehicle.Unknown.
func Derive(raw Raw) vehicle.Vehicle {
	cols := normalizeKeys(raw)
	get := func(field string) (any, bool) {
		for _, name := range aliases[field] {
			if v, ok := cols[name]; ok && v != nil {
				return v, true
			}
		}
		return nil, false
	}
	text := func(field string) string {
		v, ok := get(field)
		if !ok {
			return ""
		}
		return toText(v)
	}
	number := func(field string) float64 {
		v, ok := get(field)
		if !ok {
			return vehicle.Unknown
		}
		return toNumber(v)
	}

	v := vehicle.Vehicle{
		Brand:        strings.TrimSpace(text("brand")),
		Model:        strings.TrimSpace(text("model")),
		Price:        number("price"),
		Seats:        number("seats"),
		Doors:        number("doors"),
		Segment:      strings.TrimSpace(text("segment")),
		WheelbaseMM:  number("wheelbase"),
		WeightKG:     number("weight"),
		CcKwh:        number("cc"),
		Transmission: strings.TrimSpace(text("transmission")),
	}

	v.LengthMM, v.WidthMM, v.HeightMM = ParseDimensions(text("dimensions"))
	if !vehicle.Known(v.LengthMM) {
		v.LengthMM, v.WidthMM, v.HeightMM = number("length"), number("width"), number("height")
	}

	v.TyreWidthMM, v.RimInch = ParseWheel(text("wheel"))
	if !vehicle.Known(v.RimInch) {
		v.RimInch = number("rim")
	}
	if !vehicle.Known(v.TyreWidthMM) {
		v.TyreWidthMM = number("tyre_width")
	}

	v.AWD = HasAWD(text("drive"), v.Model)
	v.Fuel = vehicle.ParseFuel(text("fuel"))
	v.Turbo = HasTurbo(v.Model)

	return v
}

// DeriveAll derives every row and stamps its position in rows.
func DeriveAll(rows []Raw) []vehicle.Vehicle {
	pool := make([]vehicle.Vehicle, len(rows))
	for i := range rows {
		pool[i] = Derive(rows[i])
		pool[i].Index = i
	}
	return pool
}

func normalizeKeys(raw Raw) map[string]any {
	cols := make(map[string]any, len(raw))
	for k, v := range raw {
		key := strings.Join(strings.Fields(strings.ToLower(k)), " ")
		if _, exists := cols[key]; !exists {
			cols[key] = v
		}
	}
	return cols
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return ParseNumber(t.String())
	case string:
		return ParseNumber(t)
	}
	return vehicle.Unknown
}
