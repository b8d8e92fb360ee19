package rank

import (
	"carfit/internal/need"
	"carfit/internal/vehicle"
	"fmt"
)

// reasons gives short human readable highlights: the price position and the
// strongest trait for the primary need.
func reasons(v *vehicle.Vehicle, budget, capMul float64, needs need.Set) []string {
	var out []string
	switch {
	case v.Price <= budget:
		out = append(out, "within budget")
	case v.Price <= budget*capMul:
		out = append(out, "slightly above budget")
	}

	if len(needs) == 0 {
		return out
	}

	switch needs[0] {
	case need.Family:
		if vehicle.Known(v.Seats) {
			out = append(out, fmt.Sprintf("%d-seater", int(v.Seats)))
		}
	case need.City:
		out = append(out, "compact dimensions")
	case need.Fun:
		if v.Turbo {
			out = append(out, "turbo engine")
		} else {
			out = append(out, "responsive engine")
		}
	case need.Offroad:
		if v.AWD {
			out = append(out, "AWD/4x4 drive")
		}
	case need.LongTrip:
		if v.Fuel == vehicle.FuelDiesel {
			out = append(out, "robust diesel engine")
		} else {
			out = append(out, "long-distance comfort")
		}
	case need.Commercial:
		if v.IsCommercial() {
			out = append(out, "commercial body")
		}
	}
	return out
}
