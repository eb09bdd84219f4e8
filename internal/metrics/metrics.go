// Package metrics provides Prometheus metrics for tensd's store and cache
// operations.
//
// Grounded on axonops/internal/metrics.New's private-Registry-plus-
// MustRegister shape and its Record*/Update* accessor convention, scaled
// down to the store/cache/tokenizer concerns this module has instead of the
// schema registry's HTTP surface (no RequestsTotal/AuthAttempts here — this
// module has no HTTP server in scope).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors tensd exposes.
type Metrics struct {
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec

	MaterializeCacheHits   *prometheus.CounterVec
	MaterializeCacheMisses *prometheus.CounterVec

	IRCount          prometheus.Gauge
	MaterializeCount prometheus.Gauge

	GCRemovedTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tens_store_operations_total",
			Help: "Total number of TokenMemory operations.",
		},
		[]string{"operation"},
	)
	m.StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tens_store_latency_seconds",
			Help:    "TokenMemory operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	m.StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tens_store_errors_total",
			Help: "Total number of TokenMemory operation failures.",
		},
		[]string{"operation", "kind"},
	)
	m.MaterializeCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tens_materialize_cache_hits_total",
			Help: "Total materialize_and_cache calls served from the on-disk cache.",
		},
		[]string{"encoding"},
	)
	m.MaterializeCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tens_materialize_cache_misses_total",
			Help: "Total materialize_and_cache calls that rendered and tokenized.",
		},
		[]string{"encoding"},
	)
	m.IRCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tens_store_ir_count",
		Help: "Number of distinct IR byte streams currently on disk.",
	})
	m.MaterializeCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tens_store_materialize_cache_count",
		Help: "Number of materialization cache entries currently on disk.",
	})
	m.GCRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tens_gc_removed_total",
		Help: "Total number of orphaned materialization cache entries removed by GC.",
	})

	m.registry.MustRegister(
		m.StoreOperations,
		m.StoreLatency,
		m.StoreErrors,
		m.MaterializeCacheHits,
		m.MaterializeCacheMisses,
		m.IRCount,
		m.MaterializeCount,
		m.GCRemovedTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordStoreOp records one TokenMemory operation's outcome and latency.
func (m *Metrics) RecordStoreOp(operation string, duration time.Duration, err error) {
	m.StoreOperations.WithLabelValues(operation).Inc()
	m.StoreLatency.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation, errKind(err)).Inc()
	}
}

// RecordMaterializeAccess records a materialize_and_cache cache hit or miss.
func (m *Metrics) RecordMaterializeAccess(encoding string, hit bool) {
	if hit {
		m.MaterializeCacheHits.WithLabelValues(encoding).Inc()
	} else {
		m.MaterializeCacheMisses.WithLabelValues(encoding).Inc()
	}
}

// UpdateStoreStats sets the current IR and materialization cache counts.
func (m *Metrics) UpdateStoreStats(irCount, matCount int) {
	m.IRCount.Set(float64(irCount))
	m.MaterializeCount.Set(float64(matCount))
}

// RecordGC records the number of entries a GC sweep removed.
func (m *Metrics) RecordGC(removed int) {
	m.GCRemovedTotal.Add(float64(removed))
}

// kindedError is implemented by the typed errors in internal/store so
// RecordStoreOp can label a failure by its Kind instead of collapsing every
// error into one high-cardinality-free but uninformative bucket.
type kindedError interface {
	error
	ErrKind() string
}

func errKind(err error) string {
	if k, ok := err.(kindedError); ok {
		return k.ErrKind()
	}
	return "unknown"
}
