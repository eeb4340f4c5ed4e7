package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrate_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts access-guard evaluations by required level
	// and outcome (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrate_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"level", "result"},
	)

	// GrantMutations counts grant upserts and revocations by operation.
	GrantMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrate_grant_mutations_total",
			Help: "Total number of grant set/revoke operations",
		},
		[]string{"operation"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filecrate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
