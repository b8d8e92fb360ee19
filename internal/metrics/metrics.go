// Package metrics provides Prometheus metrics for the ranking service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carfit"

// Metrics groups the collectors of one registry. It implements rank.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	// RankDuration tracks time spent in one ranking call
	RankDuration prometheus.Histogram
	// RankItems tracks the number of returned candidates
	RankItems prometheus.Histogram
	// EmptyResults counts empty rankings by the stage that emptied the pool
	EmptyResults *prometheus.CounterVec
	// ClusterFallbacks counts rankings that used neutral similarity
	ClusterFallbacks prometheus.Counter
	// CatalogRecords tracks the size of the loaded catalog
	CatalogRecords prometheus.Gauge
	// CatalogReloads counts catalog reloads by status
	CatalogReloads *prometheus.CounterVec
	// HTTPRequests counts served API requests
	HTTPRequests *prometheus.CounterVec
}

// New registers the collectors in reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		RankDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rank",
				Name:      "duration_seconds",
				Help:      "Duration of ranking calls in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		RankItems: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rank",
				Name:      "items",
				Help:      "Number of candidates returned by a ranking call",
				Buckets:   []float64{0, 1, 3, 5, 10, 15, 25, 50},
			},
		),
		EmptyResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rank",
				Name:      "empty_total",
				Help:      "Total number of empty rankings by stage",
			},
			[]string{"stage"},
		),
		ClusterFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rank",
				Name:      "cluster_fallbacks_total",
				Help:      "Total number of rankings that fell back to neutral cluster similarity",
			},
		),
		CatalogRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "records",
				Help:      "Number of records in the loaded catalog",
			},
		),
		CatalogReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "reloads_total",
				Help:      "Total number of catalog reloads by status",
			},
			[]string{"status"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveRank records one ranking call.
func (m *Metrics) ObserveRank(elapsed time.Duration, items int, emptyAt string) {
	m.RankDuration.Observe(elapsed.Seconds())
	m.RankItems.Observe(float64(items))
	if emptyAt != "" {
		m.EmptyResults.WithLabelValues(emptyAt).Inc()
	}
}

// ClusterFallback records a neutral similarity fallback.
func (m *Metrics) ClusterFallback() {
	m.ClusterFallbacks.Inc()
}

// RecordCatalog records a catalog (re)load.
func (m *Metrics) RecordCatalog(records int, err error) {
	if err != nil {
		m.CatalogReloads.WithLabelValues("error").Inc()
		return
	}
	m.CatalogReloads.WithLabelValues("ok").Inc()
	m.CatalogRecords.Set(float64(records))
}

// RecordRequest records a served API request
func (m *Metrics) RecordRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
