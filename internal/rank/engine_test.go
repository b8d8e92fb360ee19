package rank

import (
	"carfit/internal/cluster"
	"carfit/internal/hard"
	"carfit/internal/need"
	"carfit/internal/score"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func car(brand, model, segment string, price float64) vehicle.Vehicle {
	u := vehicle.Unknown
	return vehicle.Vehicle{
		Brand: brand, Model: model, Segment: segment, Price: price,
		Seats: u, Doors: u,
		LengthMM: u, WidthMM: u, HeightMM: u, WheelbaseMM: u, WeightKG: u,
		CcKwh: u, RimInch: u, TyreWidthMM: u,
		Fuel: vehicle.FuelGasoline,
	}
}

func indexed(pool []vehicle.Vehicle) []vehicle.Vehicle {
	for i := range pool {
		pool[i].Index = i
	}
	return pool
}

// catalog is a synthetic but varied pool of sixty records plus one duplicate.
func catalog() []vehicle.Vehicle {
	segments := []string{"hatchback", "sedan", "mpv", "suv", "pick up", "coupe"}
	seats := []float64{5, 5, 7, 7, 3, 2}
	doors := []float64{5, 4, 5, 5, 2, 2}
	fuels := []vehicle.Fuel{vehicle.FuelGasoline, vehicle.FuelDiesel, vehicle.FuelHybrid, vehicle.FuelElectric}

	pool := make([]vehicle.Vehicle, 0, 61)
	for i := 0; i < 60; i++ {
		v := car(fmt.Sprintf("Brand%d", i%5), fmt.Sprintf("Model %d", i), segments[i%6], 150e6+float64(i)*7e6)
		v.Seats = seats[i%6]
		v.Doors = doors[i%6]
		v.LengthMM = 3600 + float64((i*37)%1400)
		v.WidthMM = 1600 + float64((i*13)%300)
		v.HeightMM = 1500
		v.WheelbaseMM = 2400 + float64((i*29)%500)
		v.WeightKG = 900 + float64((i*53)%1300)
		v.CcKwh = 1000 + float64((i*97)%2000)
		v.RimInch = 14 + float64(i%5)
		v.TyreWidthMM = 175 + float64((i*7)%90)
		v.AWD = i%4 == 0
		v.Turbo = i%7 == 0
		v.Fuel = fuels[i%4]
		v.Transmission = "MT"
		if i%2 == 0 {
			v.Transmission = "AT"
		}
		pool = append(pool, v)
	}
	pool = append(pool, pool[3])
	return indexed(pool)
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	policy, err := score.DefaultPolicy()
	require.NoError(t, err)
	if opts.Cluster == (cluster.Config{}) {
		opts.Cluster = cluster.DefaultConfig()
	}
	return NewEngine(policy, opts, nil)
}

func TestRank_ScenarioA_FamilyExcludesCoupe(t *testing.T) {
	mpv := car("Toyota", "Innova 2.0 G", "mpv", 280e6)
	mpv.Seats, mpv.Doors = 7, 5
	coupe := car("Toyota", "GR86", "coupe", 290e6)
	coupe.Seats, coupe.Doors = 2, 2

	res := newEngine(t, Options{}).Rank(indexed([]vehicle.Vehicle{mpv, coupe}), Request{
		Budget: 300e6,
		Needs:  need.Set{need.Family},
		TopN:   6,
	})

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Innova 2.0 G", res.Items[0].Vehicle.Model)
	assert.Greater(t, res.Items[0].FitScore, 0.0)
	assert.Equal(t, 1, res.Items[0].Rank)
	assert.Equal(t, 99, res.Items[0].Points)
	assert.Empty(t, res.EmptyAt)
}

func TestRank_ScenarioB_FuelFilterEmpties(t *testing.T) {
	pool := indexed([]vehicle.Vehicle{
		car("Honda", "Brio", "hatchback", 180e6),
		car("Honda", "City", "sedan", 190e6),
	})

	res := newEngine(t, Options{}).Rank(pool, Request{
		Budget:  200e6,
		Filters: Filters{Fuels: []vehicle.Fuel{vehicle.FuelDiesel}},
	})

	assert.Empty(t, res.Items)
	assert.Equal(t, StageFuel, res.EmptyAt)
	assert.Equal(t, 2, res.Pool[StagePrice])
	assert.Equal(t, 0, res.Pool[StageFuel])
}

func TestRank_ScenarioC_OffroadExcludesSedanAndTwoWheelDrive(t *testing.T) {
	sedan := car("Subaru", "WRX", "sedan", 250e6)
	sedan.AWD = true
	suv := car("Toyota", "Rush", "suv", 260e6)

	res := newEngine(t, Options{}).Rank(indexed([]vehicle.Vehicle{sedan, suv}), Request{
		Budget: 300e6,
		Needs:  need.Set{need.Offroad},
	})

	assert.Empty(t, res.Items)
	assert.Equal(t, StageHard, res.EmptyAt)
}

func TestRank_ScenarioD_TopN(t *testing.T) {
	var pool []vehicle.Vehicle
	for i := 0; i < 10; i++ {
		pool = append(pool, car("Brand", fmt.Sprintf("Model %d", i), "hatchback", 100e6+float64(i)*10e6))
	}

	res := newEngine(t, Options{}).Rank(indexed(pool), Request{Budget: 200e6, TopN: 3})

	require.Len(t, res.Items, 3)
	for i := 1; i < len(res.Items); i++ {
		assert.GreaterOrEqual(t, res.Items[i-1].FitScore, res.Items[i].FitScore)
	}
	assert.Equal(t, 10, res.Pool["ranked"])
}

func TestRank_DefaultTopN(t *testing.T) {
	res := newEngine(t, Options{}).Rank(catalog(), Request{Budget: 1e9})

	assert.Len(t, res.Items, DefaultTopN)
}

func TestRank_Invariants(t *testing.T) {
	requests := []Request{
		{Budget: 400e6},
		{Budget: 400e6, Needs: need.Set{need.Family}},
		{Budget: 400e6, Needs: need.Set{need.City, need.Fun}},
		{Budget: 450e6, Needs: need.Set{need.Offroad, need.LongTrip}},
		{Budget: 500e6, Needs: need.Set{need.Commercial}},
		{Budget: 350e6, Needs: need.Set{need.LongTrip, need.Family, need.Fun}},
		{Budget: 500e6, Needs: need.Set{need.Fun}, Filters: Filters{Transmission: vehicle.TransmissionMatic}},
		{Budget: 500e6, Filters: Filters{Fuels: []vehicle.Fuel{vehicle.FuelDiesel, vehicle.FuelHybrid}}},
	}

	pool := catalog()
	engine := newEngine(t, Options{})

	for _, req := range requests {
		t.Run(fmt.Sprintf("%v/%v", req.Needs, req.Filters), func(t *testing.T) {
			res := engine.Rank(pool, req)

			filtered := ByFuels(ByTransmission(ByBrand(PriceWindow(pool, req.Budget, engine.PriceCap(), 0),
				req.Filters.Brand), req.Filters.Transmission), req.Filters.Fuels)
			dist := stats.Describe(filtered)

			type key struct {
				model string
				price float64
			}
			seen := map[key]bool{}
			for i, c := range res.Items {
				assert.LessOrEqual(t, c.Vehicle.Price, 1.15*req.Budget, "price cap")
				assert.True(t, hard.Eligible(&c.Vehicle, res.Needs, dist), "hard filter: %s", c.Vehicle.Model)
				assert.GreaterOrEqual(t, c.FitScore, 0.0)
				assert.LessOrEqual(t, c.FitScore, 1.0)
				assert.False(t, math.IsNaN(c.FitScore))
				assert.Equal(t, i+1, c.Rank, "dense rank")

				k := key{c.Vehicle.NormalizedModel(), math.Round(c.Vehicle.Price)}
				assert.False(t, seen[k], "duplicate %v", k)
				seen[k] = true
			}
		})
	}
}

func TestRank_Deterministic(t *testing.T) {
	pool := catalog()
	req := Request{Budget: 450e6, Needs: need.Set{need.Family, need.City}, TopN: 20}

	summary := func(res Result) []string {
		out := make([]string, len(res.Items))
		for i, c := range res.Items {
			out[i] = fmt.Sprintf("%d:%d:%.12f:%s", c.Rank, c.Vehicle.Index, c.FitScore, c.Breakdown.Cluster)
		}
		return out
	}

	first := summary(newEngine(t, Options{}).Rank(pool, req))
	second := summary(newEngine(t, Options{}).Rank(pool, req))

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRank_DoesNotModifyPool(t *testing.T) {
	pool := catalog()
	before := fmt.Sprintf("%v", pool)

	newEngine(t, Options{}).Rank(pool, Request{Budget: 400e6, Needs: need.Set{need.City}})

	assert.Equal(t, before, fmt.Sprintf("%v", pool))
}

func TestRank_Dedup(t *testing.T) {
	a := car("Daihatsu", "Xenia  1.3 R", "mpv", 230e6)
	b := car("Daihatsu", "xenia 1.3 r", "mpv", 230e6+0.2)
	c := car("Daihatsu", "Xenia 1.3 R", "mpv", 240e6)

	res := newEngine(t, Options{}).Rank(indexed([]vehicle.Vehicle{a, b, c}), Request{Budget: 250e6})

	assert.Len(t, res.Items, 2)
}

func TestRank_MutuallyExclusiveNeeds(t *testing.T) {
	res := newEngine(t, Options{}).Rank(catalog(), Request{
		Budget: 500e6,
		Needs:  need.Set{need.Fun, need.Offroad},
	})

	assert.Equal(t, need.Set{need.Fun}, res.Needs)
}

func TestRank_NoNeedsUsesNeutralPreference(t *testing.T) {
	res := newEngine(t, Options{}).Rank(catalog(), Request{Budget: 400e6, TopN: 5})

	require.NotEmpty(t, res.Items)
	for _, c := range res.Items {
		assert.Equal(t, 0.5, c.Breakdown.Preference)
		assert.Empty(t, c.Breakdown.Cluster)
	}
}

func TestRank_MaxTrimsPerModel(t *testing.T) {
	pool := indexed([]vehicle.Vehicle{
		car("Hyundai", "Ioniq 5 Prime", "suv", 700e6),
		car("Hyundai", "Ioniq 5 Signature", "suv", 750e6),
		car("Hyundai", "Ioniq 5 Signature Long Range", "suv", 800e6),
		car("Hyundai", "Creta", "suv", 400e6),
	})

	unlimited := newEngine(t, Options{}).Rank(pool, Request{Budget: 800e6})
	limited := newEngine(t, Options{MaxTrimsPerModel: 2}).Rank(pool, Request{Budget: 800e6})

	assert.Len(t, unlimited.Items, 4)
	assert.Len(t, limited.Items, 3)
}

func TestPrune_CapsBeforeDedup(t *testing.T) {
	item := func(model string, price float64) Candidate {
		return Candidate{Vehicle: vehicle.Vehicle{Brand: "Toyota", Model: model, Price: price}}
	}
	items := []Candidate{
		item("Avanza", 250e6),
		item("AVANZA", 250e6),
		item("Avanza Premium", 280e6),
		item("Rush", 290e6),
	}

	got := prune(items, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Avanza", got[0].Vehicle.Model)
	assert.Equal(t, "Rush", got[1].Vehicle.Model, "the duplicate used up the second Avanza slot")

	assert.Len(t, prune(items, 0), 3)
}

func TestRank_MinPriceGap(t *testing.T) {
	pool := indexed([]vehicle.Vehicle{
		car("Suzuki", "Karimun", "hatchback", 150e6),
		car("Suzuki", "Ertiga", "mpv", 280e6),
	})

	res := newEngine(t, Options{MinPriceGap: 100e6}).Rank(pool, Request{Budget: 300e6})

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Ertiga", res.Items[0].Vehicle.Model)
}

func TestRank_PriceCapEmpty(t *testing.T) {
	res := newEngine(t, Options{}).Rank(catalog(), Request{Budget: 10e6})

	assert.Empty(t, res.Items)
	assert.Equal(t, StagePrice, res.EmptyAt)
	assert.Equal(t, 61, res.Pool["catalog"])
}

func TestRank_BrandFilter(t *testing.T) {
	pool := indexed([]vehicle.Vehicle{
		car("Volkswagen", "Polo", "hatchback", 300e6),
		car("Toyota", "Yaris", "hatchback", 290e6),
	})

	res := newEngine(t, Options{}).Rank(pool, Request{Budget: 300e6, Filters: Filters{Brand: "vw"}})
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Polo", res.Items[0].Vehicle.Model)

	res = newEngine(t, Options{}).Rank(pool, Request{Budget: 300e6, Filters: Filters{Brand: "ferrari"}})
	assert.Equal(t, StageBrand, res.EmptyAt)
}

func TestRank_RecoversFromPanic(t *testing.T) {
	rec := &fakeRecorder{}
	engine := &Engine{recorder: rec}

	res := engine.Rank(catalog(), Request{Budget: 400e6})

	assert.Empty(t, res.Items)
	assert.Equal(t, StageInternal, res.EmptyAt)
	assert.Equal(t, 1, rec.ranks)
	assert.Equal(t, StageInternal, rec.lastEmptyAt)
}

type fakeRecorder struct {
	ranks       int
	fallbacks   int
	lastEmptyAt string
	lastItems   int
}

func (f *fakeRecorder) ObserveRank(_ time.Duration, items int, emptyAt string) {
	f.ranks++
	f.lastItems = items
	f.lastEmptyAt = emptyAt
}

func (f *fakeRecorder) ClusterFallback() {
	f.fallbacks++
}

func TestRank_Recorder(t *testing.T) {
	policy, err := score.DefaultPolicy()
	require.NoError(t, err)
	rec := &fakeRecorder{}
	engine := NewEngine(policy, Options{Cluster: cluster.DefaultConfig()}, rec)

	res := engine.Rank(catalog(), Request{Budget: 400e6, Needs: need.Set{need.City}, TopN: 4})

	assert.Equal(t, 1, rec.ranks)
	assert.Equal(t, len(res.Items), rec.lastItems)
	assert.Empty(t, rec.lastEmptyAt)
	assert.Equal(t, 0, rec.fallbacks)
}
