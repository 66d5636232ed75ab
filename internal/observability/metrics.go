package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lotto"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	announcements *prometheus.CounterVec
	purchases     prometheus.Counter
	entries       *prometheus.CounterVec
	checks        *prometheus.CounterVec
	predictions   *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// NewMetrics creates and registers every collector, including the Go and
// process collectors.
//
// Postcondition: Returns a Metrics whose Handler serves all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draw",
			Name:      "announcements_total",
			Help:      "Results announced, by algorithm.",
		}, []string{"algorithm"}),
		purchases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "purchases_total",
			Help:      "Accepted purchases.",
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "entries_total",
			Help:      "Accepted purchase entries, by number category.",
		}, []string{"category"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticket",
			Name:      "checks_total",
			Help:      "Winning checks, by outcome.",
		}, []string{"outcome"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "requests_total",
			Help:      "AI prediction requests, by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.announcements,
		m.purchases,
		m.entries,
		m.checks,
		m.predictions,
		m.rateLimited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks the start of an HTTP request.
func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }

// DecrementInFlight marks the end of an HTTP request.
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

// RecordHTTPRequest records one completed request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAnnouncement counts one announced result.
func (m *Metrics) RecordAnnouncement(algorithm string) {
	m.announcements.WithLabelValues(algorithm).Inc()
}

// RecordPurchase counts one accepted purchase and its entries by category.
func (m *Metrics) RecordPurchase(categories []string) {
	m.purchases.Inc()
	for _, c := range categories {
		m.entries.WithLabelValues(c).Inc()
	}
}

// RecordCheck counts one winning check.
func (m *Metrics) RecordCheck(won bool) {
	outcome := "lose"
	if won {
		outcome = "win"
	}
	m.checks.WithLabelValues(outcome).Inc()
}

// RecordPrediction counts one prediction request; outcome is "ok", "error" or "disabled".
func (m *Metrics) RecordPrediction(outcome string) {
	m.predictions.WithLabelValues(outcome).Inc()
}

// RecordRateLimited counts one rejected request.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}
