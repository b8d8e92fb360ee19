package vehicle

import "encoding/json"

// wire is the JSON shape of a Vehicle: unknown numbers travel as null.
type wire struct {
	Index        int      `json:"index"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Price        *float64 `json:"price"`
	Seats        *float64 `json:"seats"`
	Doors        *float64 `json:"doors"`
	Segment      string   `json:"segment"`
	LengthMM     *float64 `json:"length_mm"`
	WidthMM      *float64 `json:"width_mm"`
	HeightMM     *float64 `json:"height_mm"`
	WheelbaseMM  *float64 `json:"wheelbase_mm"`
	WeightKG     *float64 `json:"weight_kg"`
	CcKwh        *float64 `json:"cc_kwh"`
	RimInch      *float64 `json:"rim_inch"`
	TyreWidthMM  *float64 `json:"tyre_width_mm"`
	AWD          bool     `json:"awd"`
	Fuel         Fuel     `json:"fuel"`
	Transmission string   `json:"transmission"`
	Turbo        bool     `json:"turbo"`
}

func toPtr(x float64) *float64 {
	if !Known(x) {
		return nil
	}
	return &x
}

func fromPtr(p *float64) float64 {
	if p == nil {
		return Unknown
	}
	return *p
}

func (v Vehicle) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Index:        v.Index,
		Brand:        v.Brand,
		Model:        v.Model,
		Price:        toPtr(v.Price),
		Seats:        toPtr(v.Seats),
		Doors:        toPtr(v.Doors),
		Segment:      v.Segment,
		LengthMM:     toPtr(v.LengthMM),
		WidthMM:      toPtr(v.WidthMM),
		HeightMM:     toPtr(v.HeightMM),
		WheelbaseMM:  toPtr(v.WheelbaseMM),
		WeightKG:     toPtr(v.WeightKG),
		CcKwh:        toPtr(v.CcKwh),
		RimInch:      toPtr(v.RimInch),
		TyreWidthMM:  toPtr(v.TyreWidthMM),
		AWD:          v.AWD,
		Fuel:         v.Fuel,
		Transmission: v.Transmission,
		Turbo:        v.Turbo,
	})
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Vehicle{
		Index:        w.Index,
		Brand:        w.Brand,
		Model:        w.Model,
		Price:        fromPtr(w.Price),
		Seats:        fromPtr(w.Seats),
		Doors:        fromPtr(w.Doors),
		Segment:      w.Segment,
		LengthMM:     fromPtr(w.LengthMM),
		WidthMM:      fromPtr(w.WidthMM),
		HeightMM:     fromPtr(w.HeightMM),
		WheelbaseMM:  fromPtr(w.WheelbaseMM),
		WeightKG:     fromPtr(w.WeightKG),
		CcKwh:        fromPtr(w.CcKwh),
		RimInch:      fromPtr(w.RimInch),
		TyreWidthMM:  fromPtr(w.TyreWidthMM),
		AWD:          w.AWD,
		Fuel:         w.Fuel,
		Transmission: w.Transmission,
		Turbo:        w.Turbo,
	}
	return nil
}
