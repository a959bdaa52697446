// Package metrics exposes Prometheus instrumentation for the import
// pipeline and budget maintenance jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcome label values.
const (
	RowValid     = "valid"
	RowInvalid   = "invalid"
	RowRecovered = "recovered"
)

// ImportMetrics carries the collectors for file imports. Register one per
// process and share it through dependency wiring, not a package global, so
// tests can use their own registry.
type ImportMetrics struct {
	ImportsTotal   *prometheus.CounterVec
	RowsTotal      *prometheus.CounterVec
	ImportDuration prometheus.Histogram
	BudgetsExpired prometheus.Counter
}

func New(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orcafacil_imports_total",
			Help: "Total number of file imports by format and outcome",
		}, []string{"format", "result"}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orcafacil_import_rows_total",
			Help: "Total number of imported rows by validation outcome",
		}, []string{"result"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "orcafacil_import_duration_seconds",
			Help:    "Wall time of a full file import",
			Buckets: prometheus.DefBuckets,
		}),
		BudgetsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "orcafacil_budgets_expired_total",
			Help: "Quotes flipped to expired by the validity sweep",
		}),
	}
}
