package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsRejected prometheus.Counter
	StoreErrors      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "registrar_ratelimit_rejected_total",
			Help: "Total number of requests rejected by the backoff rate limiter",
		}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "registrar_ratelimit_store_errors_total",
			Help: "Total number of rate limit checks that failed open on a store error",
		}),
	}
}

func (m *Metrics) IncrementRejected() {
	if m == nil {
		return
	}
	m.RequestsRejected.Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}
