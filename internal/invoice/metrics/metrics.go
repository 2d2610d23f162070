// Package metrics exposes Prometheus metrics for the invoice module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the invoice module's Prometheus collectors.
type Metrics struct {
	CreatedTotal         prometheus.Counter
	NumberConflictsTotal prometheus.Counter
	CreateDurationMs     prometheus.Histogram
}

// New registers and returns the invoice metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		CreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_invoices_created_total",
			Help: "Total number of invoices created.",
		}),
		NumberConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_invoice_number_conflicts_total",
			Help: "Total number of invoice creations rejected by the unique number constraint.",
		}),
		CreateDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_invoice_create_duration_ms",
			Help:    "Invoice creation duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// IncrementCreated records a successfully created invoice.
func (m *Metrics) IncrementCreated() {
	m.CreatedTotal.Inc()
}

// IncrementNumberConflicts records a duplicate invoice number rejection.
func (m *Metrics) IncrementNumberConflicts() {
	m.NumberConflictsTotal.Inc()
}

// ObserveCreateMs records an invoice creation duration.
func (m *Metrics) ObserveCreateMs(ms float64) {
	m.CreateDurationMs.Observe(ms)
}
