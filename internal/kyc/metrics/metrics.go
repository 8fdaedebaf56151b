package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the KYC verification workflow.
type Metrics struct {
	// Verification outcomes by status and risk level
	Outcomes *prometheus.CounterVec

	// Requests rejected before screening for malformed identity numbers
	ValidationFailures prometheus.Counter

	// Risk score distribution of persisted verifications
	RiskScores prometheus.Histogram

	// Full workflow latency including persistence
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all KYC metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_kyc_verifications_total",
			Help: "Total persisted verifications by status and risk level",
		}, []string{"status", "risk_level"}),

		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_kyc_validation_failures_total",
			Help: "Verification requests rejected for invalid identity document formats",
		}),

		RiskScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_kyc_risk_score",
			Help:    "Risk scores assigned to verifications",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_kyc_verify_duration_seconds",
			Help:    "Duration of the verification workflow",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records a persisted verification.
func (m *Metrics) IncrementOutcome(status, riskLevel string) {
	if m != nil {
		m.Outcomes.WithLabelValues(status, riskLevel).Inc()
	}
}

func (m *Metrics) IncrementValidationFailure() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}

func (m *Metrics) ObserveRiskScore(score float64) {
	if m != nil {
		m.RiskScores.Observe(score)
	}
}

func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
