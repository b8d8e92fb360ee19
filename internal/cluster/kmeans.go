package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var ErrNoPoints = errors.New("no points to cluster")

// Config holds the clustering knobs. A fixed Seed makes Fit deterministic.
type Config struct {
	// K — requested number of clusters before adaptive shrinking.
	K int `mapstructure:"k"`
	// Seed — random seed for initialisation and subsampling.
	Seed uint64 `mapstructure:"seed"`
	// MaxIter — Lloyd iteration cap.
	MaxIter int `mapstructure:"max_iter"`
	// Tol — convergence tolerance relative to the mean feature variance.
	Tol float64 `mapstructure:"tol"`
	// MaxSamples — pools larger than this are subsampled for fitting.
	MaxSamples int `mapstructure:"max_samples"`
}

func DefaultConfig() Config {
	return Config{
		K:          6,
		Seed:       42,
		MaxIter:    150,
		Tol:        1e-4,
		MaxSamples: 2000,
	}
}

// maxClusters caps the adaptive cluster count regardless of K.
const maxClusters = 6

// EffectiveK shrinks k for small pools: min(k, max(1, min(6, floor(sqrt(n/2))))).
func EffectiveK(k, n int) int {
	adaptive := int(math.Sqrt(math.Max(1, float64(n)/2)))
	adaptive = max(1, min(maxClusters, adaptive))
	if k < 1 {
		k = 1
	}
	return min(k, adaptive)
}

// kmeans is a seeded Lloyd's algorithm with k-means++ initialisation.
type kmeans struct {
	k       int
	maxIter int
	tol     float64
	rng     *rand.Rand
}

// fit returns k centroids for points. points must be non-empty and finite.
func (km *kmeans) fit(points [][]float64) ([][]float64, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	k := min(km.k, len(points))
	centroids := km.initPlusPlus(points, k)
	threshold := km.tol * meanVariance(points)

	assign := make([]int, len(points))
	for iter := 0; iter < km.maxIter; iter++ {
		for i, p := range points {
			assign[i], _ = nearest(p, centroids)
		}

		next := km.recompute(points, assign, centroids)

		var shift float64
		for c := range centroids {
			shift += sqDist(centroids[c], next[c])
		}
		centroids = next
		if shift <= threshold {
			break
		}
	}

	for _, c := range centroids {
		for _, x := range c {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("kmeans diverged: non-finite centroid")
			}
		}
	}
	return centroids, nil
}

func (km *kmeans) initPlusPlus(points [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[km.rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			_, d := nearest(p, centroids)
			dist[i] = d
			total += d
		}

		if total == 0 {
			// every point coincides with a centroid, duplicates are the only option
			centroids = append(centroids, clone(points[km.rng.IntN(len(points))]))
			continue
		}

		target := km.rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target < 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(points[chosen]))
	}
	return centroids
}

// recompute moves each centroid to the mean of its members. An empty cluster
// takes over the point farthest from its current centroid.
func (km *kmeans) recompute(points [][]float64, assign []int, prev [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for j, x := range p {
			sums[c][j] += x
		}
	}

	next := make([][]float64, len(prev))
	taken := make(map[int]bool)
	for c := range next {
		if counts[c] == 0 {
			far := farthest(points, assign, prev, taken)
			taken[far] = true
			next[c] = clone(points[far])
			continue
		}
		next[c] = sums[c]
		for j := range next[c] {
			next[c][j] /= float64(counts[c])
		}
	}
	return next
}

func farthest(points [][]float64, assign []int, centroids [][]float64, taken map[int]bool) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if taken[i] {
			continue
		}
		d := sqDist(p, centroids[assign[i]])
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nearest returns the index of the closest centroid and the squared distance to it.
func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	n := float64(len(points))
	var total float64
	for j := 0; j < dim; j++ {
		var mean, sq float64
		for _, p := range points {
			mean += p[j]
		}
		mean /= n
		for _, p := range points {
			d := p[j] - mean
			sq += d * d
		}
		total += sq / n
	}
	return total / float64(dim)
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
