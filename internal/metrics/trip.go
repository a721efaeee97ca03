package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// durationBuckets covers evaluation/verification latencies from
// sub-millisecond PSD transforms up to multi-second chain validations.
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// TripMetrics holds all verifier-process metrics.
type TripMetrics struct {
	registry *Registry

	EvaluationsTotal        prometheus.Counter
	CertificatesIssuedTotal prometheus.Counter
	ChainRejectionsTotal    *prometheus.CounterVec
	ActiveVerifySessions    prometheus.Gauge
	ActiveVerifyFailures    *prometheus.CounterVec

	EvaluationDuration prometheus.Histogram
	ChainValidationDuration prometheus.Histogram
	TrustScore              prometheus.Histogram
}

// NewTripMetrics creates and registers all verifier metrics.
func NewTripMetrics(registry *Registry) *TripMetrics {
	if registry == nil {
		registry = Default()
	}

	return &TripMetrics{
		registry: registry,

		EvaluationsTotal: registry.RegisterCounter(
			"evaluations_total",
			"Total number of criticality evaluations performed",
		),
		CertificatesIssuedTotal: registry.RegisterCounter(
			"certificates_issued_total",
			"Total number of PoH certificates issued",
		),
		ChainRejectionsTotal: registry.RegisterCounterVec(
			"chain_rejections_total",
			"Total number of chains rejected, by error kind",
			[]string{"kind"},
		),
		ActiveVerifySessions: registry.RegisterGauge(
			"active_verify_sessions",
			"Number of in-flight Active Verification sessions",
		),
		ActiveVerifyFailures: registry.RegisterCounterVec(
			"active_verify_failures_total",
			"Total number of failed Active Verification sessions, by reason",
			[]string{"reason"},
		),

		EvaluationDuration: registry.RegisterHistogram(
			"evaluation_duration_seconds",
			"Duration of a full criticality evaluation in seconds",
			durationBuckets,
		),
		ChainValidationDuration: registry.RegisterHistogram(
			"chain_validation_duration_seconds",
			"Duration of chain structural/signature validation in seconds",
			durationBuckets,
		),
		TrustScore: registry.RegisterHistogram(
			"trust_score",
			"Distribution of issued trust scores",
			[]float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		),
	}
}

// RecordEvaluation records a completed criticality evaluation.
func (m *TripMetrics) RecordEvaluation(duration time.Duration, trustScore float64) {
	m.EvaluationsTotal.Inc()
	m.EvaluationDuration.Observe(duration.Seconds())
	m.TrustScore.Observe(trustScore)
}

// RecordChainValidation records a chain validation attempt's duration.
func (m *TripMetrics) RecordChainValidation(duration time.Duration) {
	m.ChainValidationDuration.Observe(duration.Seconds())
}

// RecordChainRejection records a chain rejection by error kind.
func (m *TripMetrics) RecordChainRejection(kind string) {
	m.ChainRejectionsTotal.WithLabelValues(kind).Inc()
}

// RecordCertificateIssued records a PoH certificate issuance.
func (m *TripMetrics) RecordCertificateIssued() {
	m.CertificatesIssuedTotal.Inc()
}

// SessionStarted records an Active Verification session starting.
func (m *TripMetrics) SessionStarted() {
	m.ActiveVerifySessions.Inc()
}

// SessionEnded records an Active Verification session reaching a terminal
// state.
func (m *TripMetrics) SessionEnded(failureReason string) {
	m.ActiveVerifySessions.Dec()
	if failureReason != "" {
		m.ActiveVerifyFailures.WithLabelValues(failureReason).Inc()
	}
}

// Global verifier metrics instance.
var defaultTripMetrics *TripMetrics

// GetMetrics returns the global verifier metrics instance.
func GetMetrics() *TripMetrics {
	if defaultTripMetrics == nil {
		defaultTripMetrics = NewTripMetrics(Default())
	}
	return defaultTripMetrics
}

// InitMetrics initializes the global verifier metrics with a custom registry.
func InitMetrics(registry *Registry) *TripMetrics {
	defaultTripMetrics = NewTripMetrics(registry)
	return defaultTripMetrics
}
