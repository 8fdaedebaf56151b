package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance flag lifecycle.
type Metrics struct {
	FlagsCreated        *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	RejectedTransitions *prometheus.CounterVec

	// Analytics requests answered with an empty report after a store failure
	AnalyticsDegraded prometheus.Counter
}

// New creates a new Metrics instance with all flag metrics registered.
func New() *Metrics {
	return &Metrics{
		FlagsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_flags_created_total",
			Help: "Compliance flags raised by type and severity",
		}, []string{"flag_type", "severity"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_flags_transitions_total",
			Help: "Applied flag status transitions",
		}, []string{"from", "to"}),

		RejectedTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_flags_transitions_rejected_total",
			Help: "Flag status transitions refused by the state machine",
		}, []string{"from", "to"}),

		AnalyticsDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_flags_analytics_degraded_total",
			Help: "Analytics requests served empty because the store query failed",
		}),
	}
}

func (m *Metrics) IncrementCreated(flagType, severity string) {
	if m != nil {
		m.FlagsCreated.WithLabelValues(flagType, severity).Inc()
	}
}

func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementRejectedTransition(from, to string) {
	if m != nil {
		m.RejectedTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementAnalyticsDegraded() {
	if m != nil {
		m.AnalyticsDegraded.Inc()
	}
}
