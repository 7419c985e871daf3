package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the OTP gate's Prometheus metrics.
type Metrics struct {
	ChallengesIssued prometheus.Counter
	VerifyOutcomes   *prometheus.CounterVec
	VerifyDurationMs prometheus.Histogram
}

// New creates and registers the OTP gate metrics.
func New() *Metrics {
	return &Metrics{
		ChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turnstile_otp_challenges_issued_total",
			Help: "Total number of OTP challenges issued",
		}),
		VerifyOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turnstile_otp_verify_outcomes_total",
			Help: "OTP verification results by outcome",
		}, []string{"outcome"}),
		VerifyDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "turnstile_otp_verify_duration_ms",
			Help:    "Latency of OTP verification in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
		}),
	}
}
