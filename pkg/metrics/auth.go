package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth method labels.
const (
	MethodPassword = "password"
	MethodAPIKey   = "api_key"
	MethodBearer   = "bearer"
)

// AuthMetrics counts authentication outcomes and credential check latency.
// Outcomes are error codes (or "success"); credentials are never labels.
type AuthMetrics struct {
	attempts      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tokens        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewAuthMetrics registers the auth metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication attempts by method and outcome.",
	}, []string{"method", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_check_duration_seconds",
		Help:    "Time spent verifying credentials.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method"})
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_action_tokens_total",
		Help: "Single-use action tokens issued or redeemed.",
	}, []string{"purpose", "event"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Outbound notifications by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(attempts, duration, tokens, notifications)
	return &AuthMetrics{
		attempts:      attempts,
		duration:      duration,
		tokens:        tokens,
		notifications: notifications,
	}
}

// ObserveAttempt records one authentication attempt.
func (m *AuthMetrics) ObserveAttempt(method, outcome string, took time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	method = normalizeLabel(method)
	m.attempts.WithLabelValues(method, normalizeLabel(outcome)).Inc()
	if took > 0 {
		m.duration.WithLabelValues(method).Observe(took.Seconds())
	}
}

// IncToken records an action token event such as "issued" or "redeemed".
func (m *AuthMetrics) IncToken(purpose, event string) {
	if m == nil || m.tokens == nil {
		return
	}
	m.tokens.WithLabelValues(normalizeLabel(purpose), normalizeLabel(event)).Inc()
}

// IncNotification records a notification delivery outcome.
func (m *AuthMetrics) IncNotification(kind, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
