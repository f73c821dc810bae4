package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes recorded per dialogue turn.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid_response"
	OutcomeError       = "error"
	OutcomeGreeting    = "greeting"
)

// Metrics holds the Prometheus instruments for the triage service.
type Metrics struct {
	Turns              *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
}

// New registers the service metrics on the given registerer (pass
// prometheus.DefaultRegisterer in production, a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_turns_total",
			Help: "Dialogue turns processed, labelled by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_generation_duration_seconds",
			Help:    "Latency of generation collaborator calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
