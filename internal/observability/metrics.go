// Package observability holds the Prometheus instrumentation for the
// damwatch API. Metrics are registered once at startup and exposed on
// GET /metrics by the core chassis.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the API.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec   // labels: method, path, status
	HTTPDuration   *prometheus.HistogramVec // labels: method, path
	Predictions    *prometheus.CounterVec   // labels: label={YES,NO}
	WeatherFetches *prometheus.CounterVec   // labels: outcome={success,degraded}
}

// NewMetrics creates and registers all API metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Predictions,
		m.WeatherFetches,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "damwatch",
			Name:      "http_requests_total",
			Help:      "API requests by method, path, and response status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "damwatch",
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "damwatch",
			Name:      "rainfall_predictions_total",
			Help:      "Rainfall predictions by emitted label.",
		}, []string{"label"}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "damwatch",
			Name:      "weather_fetches_total",
			Help:      "Weather snapshot fetches by outcome; degraded means the all-null fallback was served.",
		}, []string{"outcome"}),
	}
}

// RecordRequest implements core.MetricsCollector.
func (m *Metrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPrediction counts one emitted rainfall prediction by label.
func (m *Metrics) RecordPrediction(label string) {
	m.Predictions.WithLabelValues(label).Inc()
}

// RecordWeatherFetch counts one weather fetch by outcome.
func (m *Metrics) RecordWeatherFetch(outcome string) {
	m.WeatherFetches.WithLabelValues(outcome).Inc()
}
