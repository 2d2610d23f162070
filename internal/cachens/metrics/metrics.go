package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	InvalidationsTotal     prometheus.Counter
	InvalidationDurationMs prometheus.Histogram
	ReadDefaultsTotal      prometheus.Counter
	NonAtomicBumpsTotal    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		InvalidationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_cache_invalidations_total",
			Help: "Total number of per-principal cache namespace invalidations",
		}),
		InvalidationDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_cache_invalidation_duration_ms",
			Help:    "Latency of cache namespace invalidations in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
		ReadDefaultsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_cache_read_defaults_total",
			Help: "Total number of namespace reads answered with the safe default after a store failure",
		}),
		NonAtomicBumpsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_cache_non_atomic_bumps_total",
			Help: "Total number of version bumps that fell back to read-then-write",
		}),
	}
}

func (m *Metrics) IncrementInvalidations() {
	m.InvalidationsTotal.Inc()
}

func (m *Metrics) ObserveInvalidationMs(ms float64) {
	m.InvalidationDurationMs.Observe(ms)
}

func (m *Metrics) IncrementReadDefaults() {
	m.ReadDefaultsTotal.Inc()
}

func (m *Metrics) IncrementNonAtomicBumps() {
	m.NonAtomicBumpsTotal.Inc()
}
