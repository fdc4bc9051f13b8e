package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsolidationMetrics contains Prometheus metrics for SetBest and Merge.
type ConsolidationMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rowsMovedTotal    *prometheus.CounterVec
	conflictsTotal    *prometheus.CounterVec
	auditFailures     prometheus.Counter
	retriesTotal      *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewConsolidationMetrics creates and registers consolidation metrics.
func NewConsolidationMetrics(registry prometheus.Registerer) (*ConsolidationMetrics, error) {
	m := &ConsolidationMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ConsolidationMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogcore_operations_total",
			Help: "Total number of consolidation operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogcore_operation_duration_seconds",
			Help:    "Time taken by consolidation operations including retries",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)

	m.rowsMovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogcore_rows_moved_total",
			Help: "Rows rewritten by merges",
		},
		[]string{"kind"},
	)

	m.conflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogcore_conflicts_resolved_total",
			Help: "Auxiliary row conflicts handled during merges",
		},
		[]string{"table", "action"},
	)

	m.auditFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogcore_audit_failures_total",
			Help: "Audit log appends that failed",
		},
	)

	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogcore_retries_total",
			Help: "Transaction retries after busy or deadlock errors",
		},
		[]string{"operation"},
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.rowsMovedTotal,
		m.conflictsTotal,
		m.auditFailures,
		m.retriesTotal,
	}
}

// Describe implements the Collector interface
func (m *ConsolidationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *ConsolidationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation records the outcome and duration of an operation.
func (m *ConsolidationMetrics) RecordOperation(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(durationSeconds(duration))
}

// RecordRowsMoved adds n rows of kind. Zero is ignored.
func (m *ConsolidationMetrics) RecordRowsMoved(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsMovedTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordConflict records an auxiliary conflict outcome.
func (m *ConsolidationMetrics) RecordConflict(table, action string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(table, action).Inc()
}

// RecordAuditFailure records a failed audit append.
func (m *ConsolidationMetrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

// RecordRetry records a transaction retry.
func (m *ConsolidationMetrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(operation).Inc()
}
