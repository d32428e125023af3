package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Search hub metrics, registered with the default registry at startup.
var (
	// HTTP surface counters
	RequestsTotal *prometheus.CounterVec

	// Provider search counters (outcome is the error kind, or "ok")
	SearchesTotal *prometheus.CounterVec

	// Provider search duration histogram (pagination + retries included)
	SearchDuration *prometheus.HistogramVec

	// Circuit breaker state gauge
	CircuitBreakerState *prometheus.GaugeVec

	// Outbound provider request latency
	ProviderLatency *prometheus.HistogramVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search",
			Subsystem: "hub",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search",
			Subsystem: "hub",
			Name:      "searches_total",
			Help:      "Total provider searches",
		},
		[]string{"provider", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "search",
			Subsystem: "hub",
			Name:      "search_duration_seconds",
			Help:      "Provider search duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "search",
			Subsystem: "hub",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"provider"},
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "search",
			Subsystem: "hub",
			Name:      "provider_latency_seconds",
			Help:      "Outbound provider response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(ProviderLatency)
	log.Info().Msg("Search hub metrics registered with Prometheus")
}

// RecordRequest records one HTTP request against the hub's own surface.
func RecordRequest(method, path, status string) {
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSearch records one provider search outcome.
func RecordSearch(provider, outcome string, durationSec float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	SearchesTotal.WithLabelValues(provider, outcome).Inc()
	SearchDuration.WithLabelValues(provider).Observe(durationSec)
}

// SetCircuitBreakerState exports a provider's breaker state.
func SetCircuitBreakerState(provider, state string) {
	var val float64
	switch state {
	case "closed":
		val = 0.0
	case "half-open":
		val = 0.5
	case "open":
		val = 1.0
	}
	CircuitBreakerState.WithLabelValues(provider).Set(val)
}

// RecordProviderLatency records one outbound provider response time.
func RecordProviderLatency(provider string, durationSec float64) {
	ProviderLatency.WithLabelValues(provider).Observe(durationSec)
}
