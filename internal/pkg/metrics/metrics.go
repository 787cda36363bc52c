// Package metrics provides Prometheus collectors for refresh cycles and upstream calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "token_screener"

// Metrics holds all Prometheus metrics of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	// Refresh cycle metrics
	RefreshCycles      *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
	SnapshotTokens     prometheus.Gauge
	LastSuccessfulSync prometheus.Gauge

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec

	// Served API
	RateLimited prometheus.Counter
}

// New registers all collectors in reg. A nil reg uses a fresh registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RefreshCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Total number of refresh cycles by outcome",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		SnapshotTokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "tokens",
			Help:      "Number of tokens in the published snapshot",
		}),
		LastSuccessfulSync: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_published_timestamp_seconds",
			Help:      "Unix timestamp of the last published snapshot",
		}),

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP requests by source and outcome",
		}, []string{"source", "outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Token cache lookups by result",
		}, []string{"result"}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit",
		}),
	}
}

// ObserveUpstream counts one upstream request.
func (m *Metrics) ObserveUpstream(source, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveCache counts a cache lookup as a hit or a miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveRefresh records a finished refresh cycle.
func (m *Metrics) ObserveRefresh(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(took.Seconds())
}

// SetSnapshot records the size and time of a published snapshot.
func (m *Metrics) SetSnapshot(tokens int, publishedAt time.Time) {
	if m == nil {
		return
	}
	m.SnapshotTokens.Set(float64(tokens))
	m.LastSuccessfulSync.Set(float64(publishedAt.Unix()))
}

// IncRateLimited counts a rejected API request.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
