package cluster

import (
	"carfit/internal/need"
	"carfit/internal/vehicle"
	"fmt"
	"log/slog"
)

// NeutralSimilarity is reported for every record when clustering cannot run.
const NeutralSimilarity = 0.5

// Result is the per-record output of the need-similarity scorer.
type Result struct {
	Similarity []float64
	// Labels — cluster label of each record; nil on fallback.
	Labels []need.Need
	// Fallback is set when the neutral score was used.
	Fallback bool
}

// Scorer clusters a pool and scores it against the requested needs.
// It is stateless and safe for concurrent use.
type Scorer struct {
	cfg    Config
	policy LabelPolicy
}

func NewScorer(cfg Config, policy LabelPolicy) *Scorer {
	return &Scorer{cfg: cfg, policy: policy}
}

// Score never fails: any error or panic inside clustering degrades to NeutralSimilarity.
func (s *Scorer) Score(pool []vehicle.Vehicle, needs need.Set) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Clustering panicked, using neutral similarity", "error", fmt.Sprint(r))
			res = neutral(len(pool))
		}
	}()

	rows := make([][]float64, len(pool))
	for i := range pool {
		rows[i] = FeatureVector(&pool[i])
	}

	model, err := Fit(rows, s.cfg, s.policy)
	if err != nil {
		slog.Warn("Clustering failed, using neutral similarity", "error", err, "pool", len(pool))
		return neutral(len(pool))
	}

	slog.Debug("Clusters fitted", "k", model.K(), "labels", model.CentroidLabels(), "pool", len(pool))

	labels := make([]need.Need, len(pool))
	for i := range labels {
		labels[i] = model.PointLabel(i)
	}
	return Result{Similarity: model.Similarity(needs), Labels: labels}
}

func neutral(n int) Result {
	sims := make([]float64, n)
	for i := range sims {
		sims[i] = NeutralSimilarity
	}
	return Result{Similarity: sims, Fallback: true}
}
