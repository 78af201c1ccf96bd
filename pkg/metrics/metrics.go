package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts permission evaluations and their outcome (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mouwatin_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// Transitions counts content lifecycle transitions by kind and outcome.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mouwatin_content_transitions_total",
			Help: "Total number of content status transitions",
		},
		[]string{"kind", "result"},
	)

	// Assignments counts complaint dispatch operations by action and outcome.
	Assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mouwatin_complaint_assignments_total",
			Help: "Total number of complaint assignment operations",
		},
		[]string{"action", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mouwatin_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
