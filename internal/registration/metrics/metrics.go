package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration orchestrator's Prometheus metrics.
type Metrics struct {
	Registered prometheus.Counter
	Rejected   *prometheus.CounterVec
}

// New creates and registers the registration metrics.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turnstile_registrations_total",
			Help: "Total number of completed registrations",
		}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turnstile_registrations_rejected_total",
			Help: "Rejected registration attempts by reason",
		}, []string{"reason"}),
	}
}
