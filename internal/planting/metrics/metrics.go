package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for planting coordination.
type Metrics struct {
	Mutations            *prometheus.CounterVec
	InitiativesCompleted prometheus.Counter
	VolunteersRegistered prometheus.Counter
	OperationDuration    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_planting_mutations_total",
			Help: "Committed planting mutations by audit action",
		}, []string{"action"}),
		InitiativesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_initiatives_completed_total",
			Help: "Initiatives that reached their target count",
		}),
		VolunteersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_volunteers_registered_total",
			Help: "Volunteer sign-ups accepted across all events",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbor_planting_operation_duration_seconds",
			Help:    "Duration of planting coordination operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementMutation(action string) {
	m.Mutations.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementCompleted() {
	m.InitiativesCompleted.Inc()
}

func (m *Metrics) AddVolunteers(n int64) {
	m.VolunteersRegistered.Add(float64(n))
}

func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
