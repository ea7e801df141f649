package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration lifecycle and provisioning metrics.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	ProvisioningOutcomes *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	HashDuration         prometheus.Histogram
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registrations_created_total",
			Help: "Total number of registration requests created",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_status_transitions_total",
			Help: "Registration status transitions by target status",
		}, []string{"status"}),
		ProvisioningOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_provisioning_outcomes_total",
			Help: "Account provisioning attempts by outcome",
		}, []string{"outcome"}),
		ProviderCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_provider_call_duration_seconds",
			Help:    "Latency of identity provider calls by step",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"step"}),
		HashDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_secret_hash_duration_seconds",
			Help:    "Duration of argon2id hash and verify operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistrationsCreated() {
	if m == nil {
		return
	}
	m.RegistrationsCreated.Inc()
}

func (m *Metrics) IncrementStatusTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementProvisioningOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ProvisioningOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveProviderCall records a provider step duration.
// Call with time.Now() at the start of the step.
func (m *Metrics) ObserveProviderCall(step string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderCallDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

// ObserveHash records a hash or verify duration.
func (m *Metrics) ObserveHash(start time.Time) {
	if m == nil {
		return
	}
	m.HashDuration.Observe(time.Since(start).Seconds())
}
