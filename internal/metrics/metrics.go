// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Archival triggers.
const (
	TriggerRead     = "read"
	TriggerSweep    = "sweep"
	TriggerSchedule = "schedule"
)

// Cycle close modes.
const (
	CloseModeManual    = "manual"
	CloseModeAutomatic = "automatic"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "path"},
	)

	BudgetsArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgets_archived_total",
			Help: "Budgets moved to archived after their period ended",
		},
		[]string{"trigger"},
	)

	ArchivalSweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archival_sweep_errors_total",
			Help: "Budgets the archival sweep failed to check or archive",
		},
	)

	CycleSummariesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycle_summaries_created_total",
			Help: "Cycle summaries recorded",
		},
		[]string{"mode"},
	)

	EntitlementCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_cache_lookups_total",
			Help: "Premium entitlement cache lookups by result",
		},
		[]string{"result"},
	)
)
