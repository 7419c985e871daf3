package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the check-in engine's Prometheus metrics.
type Metrics struct {
	Scans         *prometheus.CounterVec
	CheckOuts     prometheus.Counter
	Cancellations prometheus.Counter
}

// New creates and registers the check-in metrics.
func New() *Metrics {
	return &Metrics{
		Scans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turnstile_checkin_scans_total",
			Help: "Check-in attempts by entry type and result",
		}, []string{"entry_type", "result"}),
		CheckOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turnstile_checkouts_total",
			Help: "Total number of visitor check-outs",
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turnstile_cancellations_total",
			Help: "Total number of cancelled registrations",
		}),
	}
}
