// Package metrics exposes Prometheus instrumentation for the sync engine.
// Every method is safe on a nil *Metrics so components can run uninstrumented.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deskhub"

// Metrics holds the engine's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
	cacheReads    *prometheus.CounterVec
	persistWrites *prometheus.CounterVec
}

// New builds and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_results_total",
			Help:      "Completed refreshes by resource kind and outcome.",
		}, []string{"kind", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Refreshes that ended in a fallback, by failure class.",
		}, []string{"kind", "class"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Round-trip time of remote fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetches_in_flight",
			Help:      "Fetches issued but not yet completed.",
		}, []string{"kind"}),
		cacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Freshness-gated cache reads by result.",
		}, []string{"kind", "result"}),
		persistWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Cache persistence attempts by result.",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		m.fetches,
		m.failures,
		m.fetchDuration,
		m.inFlight,
		m.cacheReads,
		m.persistWrites,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FetchStarted increments the in-flight gauge.
func (m *Metrics) FetchStarted(kind string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(kind).Inc()
}

// FetchFinished decrements the in-flight gauge and records the round trip.
func (m *Metrics) FetchFinished(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(kind).Dec()
	m.fetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SyncResult counts a completed refresh.
func (m *Metrics) SyncResult(kind, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(kind, outcome).Inc()
}

// SyncFailure counts a refresh that fell back, by failure class.
func (m *Metrics) SyncFailure(kind, class string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind, class).Inc()
}

// CacheRead counts a gated read.
func (m *Metrics) CacheRead(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheReads.WithLabelValues(kind, result).Inc()
}

// PersistWrite counts a persistence attempt. result is "ok", "skipped" or "error".
func (m *Metrics) PersistWrite(kind, result string) {
	if m == nil {
		return
	}
	m.persistWrites.WithLabelValues(kind, result).Inc()
}
