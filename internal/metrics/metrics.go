// Package metrics holds the Prometheus collectors for chain runs and provider calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"horse.fit/telephone/internal/translation"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telephone_chain_runs_total",
			Help: "Total number of chain runs by outcome",
		},
		[]string{"outcome"},
	)

	runsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telephone_chain_runs_in_flight",
			Help: "Number of chain runs currently producing events",
		},
	)

	hopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telephone_chain_hops_total",
			Help: "Total number of completed hops by target language",
		},
		[]string{"language"},
	)

	hopDivergence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telephone_hop_divergence",
			Help:    "Divergence score of each hop's back-translation",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telephone_provider_calls_total",
			Help: "Total number of translation provider calls",
		},
		[]string{"provider", "op", "status"},
	)

	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telephone_provider_call_duration_seconds",
			Help:    "Duration of translation provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"provider", "op", "status"},
	)
)

// RunStarted marks one run as in flight. The returned func records its outcome.
func RunStarted() func(outcome string) {
	runsInFlight.Inc()
	return func(outcome string) {
		runsInFlight.Dec()
		runsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordHop records one finished hop.
func RecordHop(language string, divergence int) {
	hopsTotal.WithLabelValues(language).Inc()
	hopDivergence.Observe(float64(divergence))
}

// ObserveProviderCall matches translation.Observer.
func ObserveProviderCall(provider, op string, err error, elapsed time.Duration) {
	status := CallStatus(err)
	providerCallsTotal.WithLabelValues(provider, op, status).Inc()
	providerCallDuration.WithLabelValues(provider, op, status).Observe(elapsed.Seconds())
}

// CallStatus labels a provider call result. Classified failures use their kind.
func CallStatus(err error) string {
	if err == nil {
		return "success"
	}
	if kind := translation.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

var _ translation.Observer = ObserveProviderCall
