package main

import (
	"carfit/internal/diagnose"
	"carfit/internal/need"
	"carfit/internal/rank"
	"carfit/internal/vehicle"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// rankOptions — флаги команды rank.
type rankOptions struct {
	budget       float64
	needs        []string
	fuels        []string
	brand        string
	transmission string
	top          int
}

func newRankCmd() *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the catalog once and print the result as JSON",
		Example: `  carfit rank --budget 300000000 --need family --need city --fuel diesel \
    --brand toyota --transmission matic --top 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.closeLog()

			if req.TopN == 0 {
				req.TopN = a.config.Ranking.TopN
			}
			return printRanking(cmd.OutOrStdout(), a, req)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.budget, "budget", 0, "budget in catalog currency")
	flags.StringArrayVar(&opts.needs, "need", nil, "usage need, repeatable (up to 3 are used)")
	flags.StringArrayVar(&opts.fuels, "fuel", nil, "allowed fuel, repeatable")
	flags.StringVar(&opts.brand, "brand", "", "brand name or alias")
	flags.StringVar(&opts.transmission, "transmission", "", "matic or manual")
	flags.IntVar(&opts.top, "top", 0, "number of candidates (configured default when 0)")
	cmd.MarkFlagRequired("budget")

	return cmd
}

// request переводит флаги в запрос движка.
func (o *rankOptions) request() (rank.Request, error) {
	if o.budget <= 0 {
		return rank.Request{}, errors.New("--budget must be positive")
	}
	if o.top < 0 {
		return rank.Request{}, errors.New("--top must not be negative")
	}

	needs, err := need.ParseSet(o.needs)
	if err != nil {
		return rank.Request{}, err
	}
	transmission, err := vehicle.ParseTransmission(o.transmission)
	if err != nil {
		return rank.Request{}, err
	}
	fuels := make([]vehicle.Fuel, 0, len(o.fuels))
	for _, f := range o.fuels {
		fuel, err := vehicle.ParseFuelFilter(f)
		if err != nil {
			return rank.Request{}, err
		}
		fuels = append(fuels, fuel)
	}

	return rank.Request{
		Budget: o.budget,
		Needs:  needs,
		Filters: rank.Filters{
			Brand:        o.brand,
			Transmission: transmission,
			Fuels:        fuels,
		},
		TopN: o.top,
	}, nil
}

// rankingOutput — результат команды rank.
type rankingOutput struct {
	rank.Result
	Hint *diagnose.Hint `json:"hint,omitempty"`
}

func printRanking(w io.Writer, a *app, req rank.Request) error {
	pool := a.catalog.Vehicles()
	out := rankingOutput{Result: a.engine.Rank(pool, req)}
	if out.Empty() && out.EmptyAt != rank.StageInternal {
		hint := diagnose.Explain(pool, req, a.engine)
		out.Hint = &hint
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
