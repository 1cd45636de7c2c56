package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "arbor/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit emission.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_audit_events_emitted_total",
			Help: "Total number of audit events persisted, by category",
		}, []string{"category"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_audit_persist_failures_total",
			Help: "Total number of audit events that failed to persist",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_audit_persist_duration_seconds",
			Help:    "Duration of synchronous audit writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncEventsEmitted(category audit.EventCategory) {
	m.EventsEmitted.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

func (m *Metrics) ObservePersistDuration(start time.Time) {
	m.PersistDuration.Observe(time.Since(start).Seconds())
}
