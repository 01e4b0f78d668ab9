// Package metrics records strata operation metrics.
package metrics

// Collector receives operation metrics from the vault.
type Collector interface {
	RecordOperation(operation, status string, durationMs int64)
	SetRecordCount(state string, count int)
	RecordCacheEvents(hits, misses, evictions int64)
}

// Operation statuses.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// NoopCollector discards everything.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (NoopCollector) RecordOperation(operation, status string, durationMs int64) {}
func (NoopCollector) SetRecordCount(state string, count int)                     {}
func (NoopCollector) RecordCacheEvents(hits, misses, evictions int64)            {}
