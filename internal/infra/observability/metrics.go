package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	upstreamDuration *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	invalidations    *prometheus.CounterVec
	mutations        *prometheus.CounterVec
	navigations      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry keeps repeated calls in
// tests from panicking on duplicate collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_upstream_duration_seconds",
				Help:    "Duration of backend API calls by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_upstream_calls_total",
				Help: "Total backend API calls.",
			},
			[]string{"method"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_upstream_errors_total",
				Help: "Total failed backend API calls by kind (transport, status, malformed).",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total query cache hits by resource root.",
			},
			[]string{"root"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total query cache misses by resource root.",
			},
			[]string{"root"},
		),
		invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_invalidations_total",
				Help: "Total resource root invalidations.",
			},
			[]string{"root"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_mutations_total",
				Help: "Total mutations by name and outcome.",
			},
			[]string{"name", "outcome"},
		),
		navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_navigations_total",
				Help: "Route guard decisions by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordUpstream records one backend call.
func (m *Metrics) RecordUpstream(method string, d time.Duration) {
	m.upstreamCalls.WithLabelValues(method).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
func (m *Metrics) IncrUpstreamError(kind string) {
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(root string) {
	m.cacheHits.WithLabelValues(root).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(root string) {
	m.cacheMisses.WithLabelValues(root).Inc()
}

// IncrInvalidation counts a root invalidation.
func (m *Metrics) IncrInvalidation(root string) {
	m.invalidations.WithLabelValues(root).Inc()
}

// IncrMutation counts a mutation outcome (success, error, rejected).
func (m *Metrics) IncrMutation(name, outcome string) {
	m.mutations.WithLabelValues(name, outcome).Inc()
}

// IncrNavigation counts a guard decision (render, redirect).
func (m *Metrics) IncrNavigation(outcome string) {
	m.navigations.WithLabelValues(outcome).Inc()
}

// CacheSnapshot sums the cache and upstream counters across labels for
// GET /v1/metrics/cache.
func (m *Metrics) CacheSnapshot() *domain.CacheMetrics {
	hits := sumCounterVec(m.cacheHits)
	misses := sumCounterVec(m.cacheMisses)

	rate := float64(0)
	if hits+misses > 0 {
		rate = hits / (hits + misses)
	}

	return &domain.CacheMetrics{
		Hits:          hits,
		Misses:        misses,
		HitRate:       rate,
		Invalidations: sumCounterVec(m.invalidations),
		UpstreamCalls: sumCounterVec(m.upstreamCalls),
		UpstreamFails: sumCounterVec(m.upstreamErrors),
	}
}

// sumCounterVec collects every child of a CounterVec and sums their values.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
