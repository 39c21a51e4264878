// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_submissions_total",
			Help: "Total number of accepted homework submissions",
		},
		[]string{"group", "homework"},
	)

	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Grading oracle calls by outcome",
		},
		[]string{"outcome"},
	)

	GradeOverridesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grade_overrides_total",
			Help: "Total number of teacher grade overrides",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
