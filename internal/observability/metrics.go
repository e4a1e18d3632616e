package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors exported by the service.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2.0, 12), // 1ms to ~2s
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_http_errors_total",
			Help: "Total number of requests that ended in an error response",
		}, []string{"method", "route", "code"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_gate_decisions_total",
			Help: "Authorization gate decisions by result and internal reason",
		}, []string{"result", "reason"}),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.decisions)
	return m
}

// RecordRequest observes a completed request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordDecision counts a gate outcome. reason is empty for authorized requests.
func (m *Metrics) RecordDecision(authorized bool, reason string) {
	if m == nil {
		return
	}
	result := "rejected"
	if authorized {
		result = "authorized"
		reason = "none"
	}
	m.decisions.WithLabelValues(result, reason).Inc()
}
