package feature

import (
	"carfit/internal/vehicle"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		l, w, h float64
	}{
		{"millimetres", "4425 x 1730 x 1700 mm", 4425, 1730, 1700},
		{"no spaces", "4425x1730x1700", 4425, 1730, 1700},
		{"multiplication sign", "4.395 × 1.695 × 1.425", 4395, 1695, 1425},
		{"asterisk", "3640*1665*1525", 3640, 1665, 1525},
		{"metres", "4.4 x 1.7 x 1.6 m", 4400, 1700, 1600},
		{"thousands separator", "4,425 x 1,730 x 1,700", 4425, 1730, 1700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, w, h := ParseDimensions(tt.in)
			assert.InDelta(t, tt.l, l, 1e-6, "length")
			assert.InDelta(t, tt.w, w, 1e-6, "width")
			assert.InDelta(t, tt.h, h, 1e-6, "height")
		})
	}
}

func TestParseDimensions_Unparsable(t *testing.T) {
	for _, in := range []string{"", "-", "4425 x 1730", "n/a"} {
		l, w, h := ParseDimensions(in)
		assert.True(t, math.IsNaN(l) && math.IsNaN(w) && math.IsNaN(h), "input %q", in)
	}
}

func TestParseWheel(t *testing.T) {
	tyre, rim := ParseWheel("215/55 R17")
	assert.Equal(t, 215.0, tyre)
	assert.Equal(t, 17.0, rim)

	tyre, rim = ParseWheel("R15")
	assert.True(t, math.IsNaN(tyre))
	assert.Equal(t, 15.0, rim)

	tyre, rim = ParseWheel("185/65R15 (spare T125/70 R16)")
	assert.Equal(t, 185.0, tyre)
	assert.Equal(t, 15.0, rim)

	tyre, rim = ParseWheel("steel wheels")
	assert.True(t, math.IsNaN(tyre))
	assert.True(t, math.IsNaN(rim))
}

func TestHasAWD(t *testing.T) {
	assert.True(t, HasAWD("4X4"))
	assert.True(t, HasAWD("", "Pajero Sport Dakar 4WD"))
	assert.True(t, HasAWD("Full-time AWD"))
	assert.False(t, HasAWD("FWD", "Avanza 1.5 G"))
}

func TestHasTurbo(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"Raize 1.0T GR Sport", true},
		{"Almaz 1.5 Turbo Lux", true},
		{"Golf 1.4 TSI", true},
		{"Santa Fe 2.5 T-GDI", true},
		{"Ranger 2.0 EcoBoost", true},
		{"Avanza 1.5 G AT", false},
		{"Brio Satya E CVT", false},
		{"Xpander Ultimate 1.5 A/T", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HasTurbo(tt.model), tt.model)
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 1497.0, ParseNumber("1.497 cc"))
	assert.Equal(t, 1497.0, ParseNumber("1,497"))
	assert.Equal(t, 250000000.0, ParseNumber("Rp 250.000.000"))
	assert.Equal(t, 1.5, ParseNumber("1.5"))
	assert.Equal(t, 40.4, ParseNumber("40,4 kWh"))
	assert.True(t, math.IsNaN(ParseNumber("-")))
}

func TestDerive_CatalogRow(t *testing.T) {
	raw := Raw{
		"Brand":               "Toyota",
		"Type Model":          "Fortuner 2.8 VRZ 4x4 AT",
		"Harga OTR (IDR)":     "Rp 650.000.000",
		"Seats":               float64(7),
		"Segmentasi":          "SUV",
		"DIMENSION P x L x T": "4795 x 1855 x 1835",
		"Wheelbase":           "2745",
		"WHEEL & TYRE SIZE":   "265/60 R18",
		"Vehicle_Weight":      "2.135",
		"CC / kWh":            "2.755",
		"Drive Sys":           "4WD",
		"Fuel":                "Diesel",
		"Trans":               "AT",
	}

	v := Derive(raw)

	assert.Equal(t, "Toyota", v.Brand)
	assert.Equal(t, "Fortuner 2.8 VRZ 4x4 AT", v.Model)
	assert.Equal(t, 650000000.0, v.Price)
	assert.Equal(t, 7.0, v.Seats)
	assert.Equal(t, "SUV", v.Segment)
	assert.Equal(t, 4795.0, v.LengthMM)
	assert.Equal(t, 1855.0, v.WidthMM)
	assert.Equal(t, 1835.0, v.HeightMM)
	assert.Equal(t, 2745.0, v.WheelbaseMM)
	assert.Equal(t, 265.0, v.TyreWidthMM)
	assert.Equal(t, 18.0, v.RimInch)
	assert.Equal(t, 2135.0, v.WeightKG)
	assert.Equal(t, 2755.0, v.CcKwh)
	assert.True(t, v.AWD)
	assert.Equal(t, vehicle.FuelDiesel, v.Fuel)
	assert.False(t, v.Turbo)
	assert.True(t, math.IsNaN(v.Doors), "missing doors should stay unknown")
}

func TestDerive_NeverFails(t *testing.T) {
	v := Derive(Raw{"brand": 42, "price": []int{1}, "dimensions": map[string]any{}})

	assert.Equal(t, "42", v.Brand)
	assert.True(t, math.IsNaN(v.Price))
	assert.True(t, math.IsNaN(v.LengthMM))
	assert.Equal(t, vehicle.FuelOther, v.Fuel)
}

func TestDeriveAll_StampsIndex(t *testing.T) {
	pool := DeriveAll([]Raw{{"model": "a"}, {"model": "b"}})
	assert.Equal(t, 0, pool[0].Index)
	assert.Equal(t, 1, pool[1].Index)
}
