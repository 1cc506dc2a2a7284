package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared across the gateway.
type Metrics struct {
	// Nationwide summary refreshes. labels: outcome={success,error,malformed,skipped}
	NationwideRefresh *prometheus.CounterVec
	// Age of the served nationwide summary in seconds.
	NationwideAge prometheus.Gauge

	// Upstream HTTP calls. labels: upstream={openweather,visualcrossing,nominatim,googlemaps,gemini,openai,backend}
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec

	// Reverse geocode cache lookups. labels: result={hit,miss}
	GeocodeCache *prometheus.CounterVec

	// Tracked submissions. labels: kind, outcome={confirmed,reverted}
	Submissions *prometheus.CounterVec

	// Backend credential refreshes triggered by a 401. labels: outcome={refreshed,expired}
	CredentialRefresh *prometheus.CounterVec
}

// NewMetrics creates and registers all gateway metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.NationwideRefresh,
		m.NationwideAge,
		m.UpstreamDuration,
		m.UpstreamErrors,
		m.GeocodeCache,
		m.Submissions,
		m.CredentialRefresh,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		NationwideRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disha",
			Name:      "nationwide_refresh_total",
			Help:      "Nationwide weather summary refresh attempts by outcome.",
		}, []string{"outcome"}),
		NationwideAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disha",
			Name:      "nationwide_summary_age_seconds",
			Help:      "Age of the most recently served nationwide summary.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disha",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of requests to third-party APIs and the DISHA backend.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disha",
			Name:      "upstream_errors_total",
			Help:      "Failed requests to third-party APIs and the DISHA backend.",
		}, []string{"upstream"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disha",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocode cache lookups by result.",
		}, []string{"result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disha",
			Name:      "submissions_total",
			Help:      "Tracked aid and report submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CredentialRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disha",
			Name:      "credential_refresh_total",
			Help:      "Backend access credential refreshes triggered by a 401.",
		}, []string{"outcome"}),
	}
}
