package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gateway names used as metric labels.
const (
	GatewayWeather  = "weather"
	GatewayForecast = "forecast"
	GatewayYield    = "yield"
	GatewayAdvisory = "advisory"
)

// Gateway outcomes used as metric labels.
const (
	OutcomeRemote      = "remote"
	OutcomeFallback    = "fallback"
	OutcomeValidation  = "validation"
	OutcomeUnavailable = "unavailable"
)

// Metrics holds the Prometheus collectors for the gateways and the facade.
type Metrics struct {
	GatewayRequests *prometheus.CounterVec   // labels: gateway, outcome
	GatewayDuration *prometheus.HistogramVec // labels: gateway
	GeocodeCache    *prometheus.CounterVec   // labels: result={hit,miss}
	RefreshRuns     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GatewayRequests,
		m.GatewayDuration,
		m.GeocodeCache,
		m.RefreshRuns,
	)
	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart_farmer",
			Name:      "gateway_requests_total",
			Help:      "Gateway calls by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smart_farmer",
			Name:      "gateway_duration_seconds",
			Help:      "Remote call duration per gateway in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"gateway"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart_farmer",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		RefreshRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smart_farmer",
			Name:      "refresh_runs_total",
			Help:      "Scheduled dashboard refreshes executed.",
		}),
	}
}

// Observe records one gateway outcome. Safe on a nil receiver.
func (m *Metrics) Observe(gateway, outcome string) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(gateway, outcome).Inc()
}

// ObserveDuration records a remote call duration in seconds. Safe on a nil receiver.
func (m *Metrics) ObserveDuration(gateway string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayDuration.WithLabelValues(gateway).Observe(seconds)
}
