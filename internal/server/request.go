package server

import (
	"carfit/internal/diagnose"
	"carfit/internal/history"
	"carfit/internal/need"
	"carfit/internal/rank"
	"carfit/internal/vehicle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// filtersRequest holds the request filters as sent by the client.
type filtersRequest struct {
	Brand        string   `json:"brand" validate:"max=64"`
	Transmission string   `json:"transmission" validate:"max=16"`
	Fuels        []string `json:"fuels" validate:"max=6,dive,required,max=32"`
}

// recommendationRequest is the body of POST /api/v1/recommendations.
type recommendationRequest struct {
	Budget  float64        `json:"budget" validate:"required,gt=0"`
	Needs   []string       `json:"needs" validate:"max=6,dive,required,max=32"`
	Filters filtersRequest `json:"filters"`
	TopN    int            `json:"topn" validate:"gte=0,lte=100"`
}

// toRank validates the request and converts it to an engine request.
// A zero TopN is replaced by defaultTopN.
func (r *recommendationRequest) toRank(defaultTopN int) (rank.Request, error) {
	if err := validate.Struct(r); err != nil {
		return rank.Request{}, validationError(err)
	}

	needs, err := need.ParseSet(r.Needs)
	if err != nil {
		return rank.Request{}, err
	}

	transmission, err := vehicle.ParseTransmission(r.Filters.Transmission)
	if err != nil {
		return rank.Request{}, err
	}

	fuels := make([]vehicle.Fuel, 0, len(r.Filters.Fuels))
	for _, f := range r.Filters.Fuels {
		fuel, err := vehicle.ParseFuelFilter(f)
		if err != nil {
			return rank.Request{}, err
		}
		fuels = append(fuels, fuel)
	}

	topN := r.TopN
	if topN == 0 {
		topN = defaultTopN
	}

	return rank.Request{
		Budget: r.Budget,
		Needs:  needs,
		Filters: rank.Filters{
			Brand:        strings.TrimSpace(r.Filters.Brand),
			Transmission: transmission,
			Fuels:        fuels,
		},
		TopN: topN,
	}, nil
}

// validationError joins validator errors into one message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field '%s' failed rule '%s'", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// recommendationResponse is the ranking result plus the diagnostic of an empty result.
type recommendationResponse struct {
	ID string `json:"id"`
	rank.Result
	Hint *diagnose.Hint `json:"hint,omitempty"`
}

// historyResponse lists the stored rankings of a session.
type historyResponse struct {
	Entries []history.Entry `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}
