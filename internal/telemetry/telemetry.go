// Package telemetry declares the prometheus collectors exposed on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Interaction outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

var (
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_interactions_total",
		Help: "Record attempts by interaction kind and outcome.",
	}, []string{"kind", "outcome"})

	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_store_operation_duration_seconds",
		Help:    "Latency of metrics store operations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"op"})

	ContactMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_contact_messages_total",
		Help: "Contact form submissions by outcome.",
	}, []string{"outcome"})

	AuditDriftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_audit_drift_total",
		Help: "Aggregate rows found out of sync with the interaction log.",
	}, []string{"kind"})

	AuditRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_audit_runs_total",
		Help: "Consistency audit runs by result.",
	}, []string{"result"})
)
