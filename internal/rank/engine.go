package rank

import (
	"carfit/internal/cluster"
	"carfit/internal/need"
	"carfit/internal/score"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"
)

// Доля оценки предпочтений, отдаваемая атрибутам; остальное — близости к кластеру.
const attributeShare = 0.7

// Вес ценовой оценки для обычных потребностей и для fun/offroad.
const (
	priceAlpha           = 0.30
	priceAlphaEnthusiast = 0.20
)

// Оценка предпочтений, когда потребности не указаны.
const neutralPreference = 0.5

// Recorder — получатель метрик ранжирования.
type Recorder interface {
	// ObserveRank вызывается один раз на каждый вызов Rank.
	ObserveRank(elapsed time.Duration, items int, emptyAt string)
	// ClusterFallback вызывается, когда кластеризация не удалась и использована нейтральная близость.
	ClusterFallback()
}

type nopRecorder struct{}

func (nopRecorder) ObserveRank(time.Duration, int, string) {}

func (nopRecorder) ClusterFallback() {}

// Options — параметры движка, не относящиеся к политике оценки.
type Options struct {
	Cluster cluster.Config
	// MaxTrimsPerModel — не более N комплектаций одного семейства моделей;
	// 0 и отрицательные значения отключают ограничение.
	MaxTrimsPerModel int
	// MinPriceGap — нижняя граница цены budget-MinPriceGap; 0 отключает её.
	MinPriceGap float64
}

// Engine — движок ранжирования. Последовательно применяет фильтры к каталогу,
// оценивает оставшиеся записи и собирает упорядоченный список кандидатов.
//
// Engine не хранит изменяемого состояния между вызовами и безопасен для
// одновременного использования, если вызывающие стороны не изменяют переданный каталог.
type Engine struct {
	policy   *score.Policy   // мягкие и стилевые правила, ценовые полосы, метки кластеров
	scorer   *cluster.Scorer // оценка близости к кластерам потребностей
	opts     Options
	recorder Recorder
}

// NewEngine создаёт движок. recorder может быть nil.
func NewEngine(policy *score.Policy, opts Options, recorder Recorder) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		policy:   policy,
		scorer:   cluster.NewScorer(opts.Cluster, policy.Labels),
		opts:     opts,
		recorder: recorder,
	}
}

// PriceCap возвращает множитель бюджета, выше которого записи отбрасываются.
func (e *Engine) PriceCap() float64 {
	return e.policy.Price.Cap
}

// MinPriceGap возвращает настроенную нижнюю границу цены относительно бюджета.
func (e *Engine) MinPriceGap() float64 {
	return e.opts.MinPriceGap
}

type stage struct {
	name  string
	apply func([]vehicle.Vehicle) []vehicle.Vehicle
}

// Rank ранжирует pool под запрос req.
// Порядок действий:
//  1. Приводит потребности к допустимому набору.
//  2. Применяет фильтры: цена, бренд, коробка передач, топливо, жёсткие ограничения.
//  3. Если какой-либо фильтр не оставил записей — возвращает пустой результат с EmptyAt.
//  4. Оценивает записи, применяет множители, удаляет дубликаты и присваивает ранги.
//  5. Обрезает список до req.TopN.
//
// Rank никогда не возвращает ошибку: паника перехватывается и превращается
// в пустой результат с EmptyAt = "internal".
func (e *Engine) Rank(pool []vehicle.Vehicle, req Request) (res Result) {
	start := time.Now()
	needs := need.NewSet(req.Needs...)
	res = Result{Needs: needs, Items: []Candidate{}, Pool: map[string]int{"catalog": len(pool)}}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Ranking failed", "error", fmt.Sprint(r), "stack", string(debug.Stack()))
			res = Result{Needs: needs, Items: []Candidate{}, EmptyAt: StageInternal, Pool: res.Pool}
		}
		e.recorder.ObserveRank(time.Since(start), len(res.Items), res.EmptyAt)
	}()

	stages := []stage{
		{StagePrice, func(p []vehicle.Vehicle) []vehicle.Vehicle {
			return PriceWindow(p, req.Budget, e.policy.Price.Cap, e.opts.MinPriceGap)
		}},
		{StageBrand, func(p []vehicle.Vehicle) []vehicle.Vehicle { return ByBrand(p, req.Filters.Brand) }},
		{StageTransmission, func(p []vehicle.Vehicle) []vehicle.Vehicle { return ByTransmission(p, req.Filters.Transmission) }},
		{StageFuel, func(p []vehicle.Vehicle) []vehicle.Vehicle { return ByFuels(p, req.Filters.Fuels) }},
		{StageHard, func(p []vehicle.Vehicle) []vehicle.Vehicle { return ByNeeds(p, needs) }},
	}

	cand := pool
	for _, s := range stages {
		cand = s.apply(cand)
		res.Pool[s.name] = len(cand)
		if len(cand) == 0 {
			slog.Debug("Ranking stopped at empty stage", "stage", s.name, "pool", res.Pool)
			res.EmptyAt = s.name
			return res
		}
	}

	items := e.score(cand, req.Budget, needs)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FitScore > items[j].FitScore
	})
	items = prune(items, e.opts.MaxTrimsPerModel)

	for i := range items {
		items[i].Rank = i + 1
		items[i].Points = Points(i+1, len(items))
	}
	res.Pool["ranked"] = len(items)

	topN := req.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(items) > topN {
		items = items[:topN]
	}

	res.Items = items
	return res
}

// score вычисляет итоговую оценку и её разбивку для каждой записи pool.
func (e *Engine) score(pool []vehicle.Vehicle, budget float64, needs need.Set) []Candidate {
	dist := stats.Describe(pool)
	attrs := score.Attributes(pool, dist)
	prices := stats.Column(pool, func(v *vehicle.Vehicle) float64 { return v.Price })
	priceFit := score.PriceFit(prices, budget, e.policy.Price)
	facts := score.NewFactsBuilder(needs, dist)

	var sim cluster.Result
	if len(needs) > 0 {
		sim = e.scorer.Score(pool, needs)
		if sim.Fallback {
			e.recorder.ClusterFallback()
		}
	}

	alpha := priceAlpha
	if needs.Has(need.Fun) || needs.Has(need.Offroad) {
		alpha = priceAlphaEnthusiast
	}

	items := make([]Candidate, len(pool))
	for i := range pool {
		v := &pool[i]

		b := Breakdown{
			Attributes: attrs[i],
			Similarity: cluster.NeutralSimilarity,
			Preference: neutralPreference,
			PriceFit:   priceFit[i],
		}
		if len(needs) > 0 {
			b.Attribute = attrs[i].Blend(needs)
			b.Similarity = sim.Similarity[i]
			b.Preference = stats.Clip01(attributeShare*b.Attribute + (1-attributeShare)*b.Similarity)
		}
		if sim.Labels != nil {
			b.Cluster = sim.Labels[i]
		}

		b.Raw = stats.Clip01((1-alpha)*b.Preference + alpha*b.PriceFit)
		adj := e.policy.Adjust(facts.Build(v))
		b.Soft, b.Style = adj.Soft, adj.Style
		b.SoftRules, b.StyleRules = adj.SoftRules, adj.StyleRules

		items[i] = Candidate{
			Vehicle:   *v,
			FitScore:  adj.Apply(b.Raw),
			Reasons:   reasons(v, budget, e.policy.Price.Cap, needs),
			Breakdown: b,
		}
	}
	return items
}
