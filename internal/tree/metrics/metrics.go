package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tree registry.
type Metrics struct {
	TreesRegistered   prometheus.Counter
	TreeMutations     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TreesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_trees_registered_total",
			Help: "Total number of trees registered",
		}),
		TreeMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_tree_mutations_total",
			Help: "Committed tree mutations by history update type",
		}, []string{"update_type"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbor_tree_operation_duration_seconds",
			Help:    "Duration of tree registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.TreesRegistered.Inc()
}

func (m *Metrics) IncrementMutation(updateType string) {
	m.TreeMutations.WithLabelValues(updateType).Inc()
}

// ObserveOperation records the duration of op. Call with time.Now() taken at
// the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
