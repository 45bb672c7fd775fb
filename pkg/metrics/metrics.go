// Package metrics exposes the backend's Prometheus metrics on a private
// registry. Labels are limited to method, route template, status and
// fixed enumerations to keep cardinality bounded.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg                  *prometheus.Registry
	handler              http.Handler
	reqTotal             *prometheus.CounterVec
	reqDur               *prometheus.HistogramVec
	entityOps            *prometheus.CounterVec
	sessionVerifications *prometheus.CounterVec
	loginRateLimited     prometheus.Counter
}

// New returns a fresh registry with the Go and process collectors and the
// backend metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		entityOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entity_operations_total",
			Help: "Entity store operations by entity, operation, and result",
		}, []string{"entity", "operation", "result"}),
		sessionVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_verifications_total",
			Help: "Session token verifications by result",
		}, []string{"result"}),
		loginRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_rate_limited_total",
			Help: "Total login attempts rejected by the rate limiter",
		}),
	}
	reg.MustRegister(
		m.reqTotal,
		m.reqDur,
		m.entityOps,
		m.sessionVerifications,
		m.loginRateLimited,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) ObserveEntityOperation(entity, operation, result string) {
	m.entityOps.WithLabelValues(entity, operation, result).Inc()
}

func (m *Metrics) ObserveSessionVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.sessionVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncLoginRateLimited() {
	m.loginRateLimited.Inc()
}
