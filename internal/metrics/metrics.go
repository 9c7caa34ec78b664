// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application's collectors.  A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	purchases       *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duoverkoop",
			Name:      "purchase_actions_total",
			Help:      "Purchase lifecycle actions by action and outcome.",
		}, []string{"action", "outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duoverkoop",
			Name:      "verification_lookups_total",
			Help:      "Verification code lookups by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duoverkoop",
			Name:      "confirmation_notifications_total",
			Help:      "Purchase confirmation notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "duoverkoop",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		m.purchases, m.verifications, m.notifications, m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// PurchaseAction counts a CREATE/UPDATE/DELETE with its outcome.
func (m *Metrics) PurchaseAction(action, outcome string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(action, outcome).Inc()
}

// VerificationLookup counts a code lookup outcome (found, not_found, empty, invalid_format).
func (m *Metrics) VerificationLookup(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

// Notification counts a confirmation delivery attempt.
func (m *Metrics) Notification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
