// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeRefused  = "refused"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_submissions_total",
			Help: "Complaint submissions by outcome.",
		}, []string{"outcome"})

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_validation_failures_total",
			Help: "Local validation failures by field.",
		}, []string{"field"})

	TokenChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_token_checks_total",
			Help: "Backend security handshakes by result.",
		}, []string{"result"})

	BackendLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complaint_backend_request_seconds",
			Help:    "Latency of complaint sends to the backend.",
			Buckets: prometheus.DefBuckets,
		})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "complaint_active_sessions",
			Help: "Number of visitor sessions currently held in memory.",
		})

	SessionEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_session_evict_total",
			Help: "Sessions evicted from the store, by reason.",
		}, []string{"reason"})

	FormReloadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complaint_form_reload_total",
			Help: "Form definition reloads triggered by the watcher.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		ValidationFailuresTotal,
		TokenChecksTotal,
		BackendLatency,
		ActiveSessions,
		SessionEvictTotal,
		FormReloadTotal,
	)
}
