package rank

import (
	"carfit/internal/vehicle"
	"testing"

	"github.com/stretchr/testify/assert"
)

func models(pool []vehicle.Vehicle) []string {
	out := make([]string, len(pool))
	for i := range pool {
		out[i] = pool[i].Model
	}
	return out
}

func TestPriceWindow(t *testing.T) {
	pool := []vehicle.Vehicle{
		car("a", "cheap", "", 69),
		car("a", "floor", "", 70),
		car("a", "cap", "", 115),
		car("a", "over", "", 116),
		car("a", "unknown", "", vehicle.Unknown),
	}

	assert.Equal(t, []string{"cheap", "floor", "cap"}, models(PriceWindow(pool, 100, 1.15, 0)))
	assert.Equal(t, []string{"floor", "cap"}, models(PriceWindow(pool, 100, 1.15, 30)))
	assert.Len(t, pool, 5, "input is not modified")
}

func TestNormalizeBrand(t *testing.T) {
	tests := map[string]string{
		"Toyota":        "toyota",
		"Tooyota":       "toyota",
		"Mercedes-Benz": "mercedesbenz",
		"mercy":         "mercedesbenz",
		"VW":            "volkswagen",
		" Land Rover ":  "landrover",
		"Chery":         "chery",
		"Cherry":        "chery",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBrand(in), in)
	}
}

func TestByBrand(t *testing.T) {
	pool := []vehicle.Vehicle{
		car("Mercedes-Benz", "C 200", "sedan", 1),
		car("MG", "ZS", "suv", 1),
		car("Mitsubishi", "Xpander", "mpv", 1),
		car("Toyota", "Avanza", "mpv", 1),
	}

	assert.Equal(t, []string{"C 200"}, models(ByBrand(pool, "mercedes")))
	assert.Equal(t, []string{"C 200"}, models(ByBrand(pool, "Mercy")))
	assert.Equal(t, []string{"ZS"}, models(ByBrand(pool, "mg")))
	assert.Equal(t, []string{"Avanza"}, models(ByBrand(pool, "toyot")))
	assert.Len(t, ByBrand(pool, "  "), 4)
	assert.Empty(t, ByBrand(pool, "ferrari"))
}

func TestByTransmission(t *testing.T) {
	at := car("a", "Brio RS CVT", "hatchback", 1)
	mt := car("a", "Brio S", "hatchback", 1)
	mt.Transmission = "M/T"
	both := car("a", "Jimny", "suv", 1)
	both.Transmission = "MT / AT"
	pool := []vehicle.Vehicle{at, mt, both}

	assert.Equal(t, []string{"Brio RS CVT", "Jimny"}, models(ByTransmission(pool, vehicle.TransmissionMatic)))
	assert.Equal(t, []string{"Brio S", "Jimny"}, models(ByTransmission(pool, vehicle.TransmissionManual)))
	assert.Len(t, ByTransmission(pool, vehicle.TransmissionAny), 3)
}

func TestByFuels(t *testing.T) {
	diesel := car("a", "diesel", "", 1)
	diesel.Fuel = vehicle.FuelDiesel
	ev := car("a", "ev", "", 1)
	ev.Fuel = vehicle.FuelElectric
	petrol := car("a", "petrol", "", 1)
	pool := []vehicle.Vehicle{diesel, ev, petrol}

	assert.Equal(t, []string{"diesel"}, models(ByFuels(pool, []vehicle.Fuel{vehicle.FuelDiesel})))
	assert.Equal(t, []string{"diesel", "ev"}, models(ByFuels(pool, []vehicle.Fuel{vehicle.FuelElectric, vehicle.FuelDiesel})))
	assert.Len(t, ByFuels(pool, nil), 3)
	assert.Len(t, ByFuels(pool, []vehicle.Fuel{vehicle.FuelOther}), 3, "other is not a selection")
	assert.Len(t, ByFuels(pool, []vehicle.Fuel{
		vehicle.FuelGasoline, vehicle.FuelDiesel, vehicle.FuelHybrid, vehicle.FuelPHEV, vehicle.FuelElectric,
	}), 3, "five categories are no filter")
}

func TestModelBase(t *testing.T) {
	tests := map[string]string{
		"Ioniq 5 Prime":                "ioniq 5",
		"Ioniq 5 Signature Long Range": "ioniq 5",
		"Xpander Ultimate CVT":         "xpander cvt",
		"Innova Zenix Hybrid V":        "innova zenix v",
		"Premium Hybrid":               "premium hybrid",
		"Seal Performance (AWD)":       "seal awd",
	}
	for in, want := range tests {
		assert.Equal(t, want, ModelBase(in), in)
	}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 99, Points(1, 1))
	assert.Equal(t, 99, Points(1, 10))
	assert.Equal(t, 1, Points(10, 10))
	assert.Equal(t, 50, Points(2, 3))
}
