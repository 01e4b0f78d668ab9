package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector exports strata metrics on a private registry.
type PrometheusCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	records           *prometheus.GaugeVec
	cacheEvents       *prometheus.CounterVec
	registry          *prometheus.Registry

	// cache counters arrive as running totals; counters need deltas
	mu       sync.Mutex
	lastSeen [3]int64
}

// NewPrometheusCollector creates a collector with its own registry.
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_operations_total",
			Help: "Total number of vault operations by type and status",
		},
		[]string{"operation", "status"},
	)
	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_operation_duration_seconds",
			Help:    "Duration of vault operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 10},
		},
		[]string{"operation"},
	)
	records := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strata_records",
			Help: "Fossils in the last analyzed snapshot by state",
		},
		[]string{"state"},
	)
	cacheEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_tokenizer_cache_events_total",
			Help: "Tokenizer cache hits, misses and evictions",
		},
		[]string{"event"},
	)

	registry.MustRegister(operationsTotal, operationDuration, records, cacheEvents)

	return &PrometheusCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		records:           records,
		cacheEvents:       cacheEvents,
		registry:          registry,
	}
}

// RecordOperation counts one finished operation and observes its duration.
func (m *PrometheusCollector) RecordOperation(operation, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

// SetRecordCount sets the fossil count for a state (total, visible, deleted, superseded).
func (m *PrometheusCollector) SetRecordCount(state string, count int) {
	m.records.WithLabelValues(state).Set(float64(count))
}

// RecordCacheEvents takes the tokenizer's running totals and adds what is new since the last call.
func (m *PrometheusCollector) RecordCacheEvents(hits, misses, evictions int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range [3]int64{hits, misses, evictions} {
		if d := cur - m.lastSeen[i]; d > 0 {
			m.cacheEvents.WithLabelValues(cacheEventNames[i]).Add(float64(d))
		}
		m.lastSeen[i] = cur
	}
}

var cacheEventNames = [3]string{"hit", "miss", "eviction"}

// Registry returns the Prometheus registry for HTTP exposure.
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
