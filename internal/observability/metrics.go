// Package observability provides Prometheus metrics for catalogcore.
// Sentry error telemetry is handled in the telemetry package.
package observability

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry      *prometheus.Registry
	Consolidation *metrics.ConsolidationMetrics
}

// NewMetrics creates a registry with the runtime collectors and the
// consolidation metrics registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	consolidation, err := metrics.NewConsolidationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create consolidation metrics: %w", err)
	}

	return &Metrics{registry: registry, Consolidation: consolidation}, nil
}

// RegisterDBStats exposes connection pool statistics for db.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
