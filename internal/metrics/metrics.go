// Package metrics exposes the engine's Prometheus collectors. Each engine
// instance owns its own registry so tests and multi-engine processes do not
// trip over duplicate registrations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	rateLimitRejections prometheus.Counter
	requestsInFlight    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minigate_requests_total",
			Help: "Requests processed, by method, route template and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minigate_request_duration_seconds",
			Help:    "Request processing time, by route template.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minigate_rate_limit_rejections_total",
			Help: "Requests denied admission by the rate limiter.",
		}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minigate_requests_in_flight",
			Help: "Requests currently being processed.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rateLimitRejections,
		m.requestsInFlight,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(method, route string, code int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRateLimitRejection counts one admission denial.
func (m *Metrics) RecordRateLimitRejection() {
	m.rateLimitRejections.Inc()
}

// TrackInFlight marks a request as started and returns its completion
// callback.
func (m *Metrics) TrackInFlight() (done func()) {
	m.requestsInFlight.Inc()
	return m.requestsInFlight.Dec
}
