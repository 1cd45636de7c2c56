package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected    prometheus.Counter
	StoreErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_ratelimit_rejected_total",
			Help: "Mutating requests rejected by the per-caller rate limit",
		}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "arbor_ratelimit_store_errors_total",
			Help: "Limit checks that failed and were let through",
		}),
	}
}

func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

func (m *Metrics) IncrementStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
