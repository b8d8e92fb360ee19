package cluster

import (
	"carfit/internal/need"
	"carfit/internal/stats"
	"carfit/internal/vehicle"
	"fmt"
	"math"
	"math/rand/v2"
)

// Features is the column order of the clustering feature space.
var Features = []string{"length", "width", "height", "wheelbase", "weight", "cc", "rim", "tyre", "awd"}

var featureIndex = func() map[string]int {
	idx := make(map[string]int, len(Features))
	for i, f := range Features {
		idx[f] = i
	}
	return idx
}()

// FeatureVector returns the raw feature row of v. Unknown attributes stay NaN.
func FeatureVector(v *vehicle.Vehicle) []float64 {
	awd := 0.0
	if v.AWD {
		awd = 1
	}
	return []float64{
		v.LengthMM, v.WidthMM, v.HeightMM, v.WheelbaseMM, v.WeightKG,
		v.CcKwh, v.RimInch, v.TyreWidthMM, awd,
	}
}

// scaler imputes column medians and standardizes to zero mean and unit variance.
type scaler struct {
	median []float64
	mean   []float64
	scale  []float64
}

func newScaler(rows [][]float64) *scaler {
	dim := len(rows[0])
	s := &scaler{
		median: make([]float64, dim),
		mean:   make([]float64, dim),
		scale:  make([]float64, dim),
	}

	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		s.median[j] = stats.OrDefault(stats.Median(col), 0)

		var sum float64
		for i := range rows {
			sum += s.impute(rows[i][j], j)
		}
		s.mean[j] = sum / float64(len(rows))

		var sq float64
		for i := range rows {
			d := s.impute(rows[i][j], j) - s.mean[j]
			sq += d * d
		}
		s.scale[j] = math.Sqrt(sq / float64(len(rows)))
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return s
}

func (s *scaler) impute(x float64, j int) float64 {
	if vehicle.Known(x) {
		return x
	}
	return s.median[j]
}

func (s *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, x := range row {
		out[j] = (s.impute(x, j) - s.mean[j]) / s.scale[j]
	}
	return out
}

func (s *scaler) inverse(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, x := range row {
		out[j] = x*s.scale[j] + s.mean[j]
	}
	return out
}

// Model is a fitted clustering of one candidate pool.
type Model struct {
	points    [][]float64 // standardized pool rows
	centroids [][]float64 // standardized centroids
	raw       [][]float64 // centroids in original units
	labels    []need.Need // need per centroid
	assign    []int       // nearest centroid per pool row
}

// Fit clusters raw feature rows. Pools above cfg.MaxSamples are fitted on a seeded
// subsample and every row is then assigned to its nearest centroid.
func Fit(rows [][]float64, cfg Config, policy LabelPolicy) (*Model, error) {
	if len(rows) == 0 {
		return nil, ErrNoPoints
	}
	if len(policy) == 0 {
		policy = DefaultLabelPolicy()
	}

	sc := newScaler(rows)
	points := make([][]float64, len(rows))
	for i, r := range rows {
		points[i] = sc.transform(r)
		for _, x := range points[i] {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("row %d: non-finite feature", i)
			}
		}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	sample := points
	if cfg.MaxSamples > 0 && len(points) > cfg.MaxSamples {
		sample = make([][]float64, cfg.MaxSamples)
		for i, idx := range rng.Perm(len(points))[:cfg.MaxSamples] {
			sample[i] = points[idx]
		}
	}

	km := &kmeans{
		k:       EffectiveK(cfg.K, len(points)),
		maxIter: max(1, cfg.MaxIter),
		tol:     cfg.Tol,
		rng:     rng,
	}
	centroids, err := km.fit(sample)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}

	m := &Model{
		points:    points,
		centroids: centroids,
		raw:       make([][]float64, len(centroids)),
		assign:    make([]int, len(points)),
	}
	for c := range centroids {
		m.raw[c] = sc.inverse(centroids[c])
	}
	for i, p := range points {
		m.assign[i], _ = nearest(p, centroids)
	}
	m.labels = policy.Label(m.raw)
	return m, nil
}

// K is the number of fitted clusters.
func (m *Model) K() int {
	return len(m.centroids)
}

// CentroidLabels returns the need assigned to each centroid.
func (m *Model) CentroidLabels() []need.Need {
	return append([]need.Need(nil), m.labels...)
}

// PointLabel is the label of the centroid row i was assigned to.
func (m *Model) PointLabel(i int) need.Need {
	return m.labels[m.assign[i]]
}

// Similarity scores every row against needs: per need, 1/(1+d) to the nearest
// centroid carrying that label (0 when no centroid does), averaged across needs.
func (m *Model) Similarity(needs need.Set) []float64 {
	sims := make([]float64, len(m.points))
	if len(needs) == 0 {
		return sims
	}

	for _, n := range needs {
		var cids []int
		for c, l := range m.labels {
			if l == n {
				cids = append(cids, c)
			}
		}
		if len(cids) == 0 {
			continue
		}

		for i, p := range m.points {
			best := math.Inf(1)
			for _, c := range cids {
				best = math.Min(best, sqDist(p, m.centroids[c]))
			}
			sims[i] += 1 / (1 + math.Sqrt(best))
		}
	}

	for i := range sims {
		sims[i] /= float64(len(needs))
	}
	return sims
}
