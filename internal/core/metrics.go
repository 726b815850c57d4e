// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModerationTransitions counts applied moderation actions by entity and
	// audit action tag.
	ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thesis_archive_moderation_transitions_total",
		Help: "Moderation state transitions applied, by entity and action",
	}, []string{"entity", "action"})

	// JanitorSwept counts records handled by the janitor, by sweep and result.
	JanitorSwept = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thesis_archive_janitor_records_total",
		Help: "Records processed by janitor sweeps",
	}, []string{"sweep", "result"})

	JanitorLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thesis_archive_janitor_last_run_timestamp_seconds",
		Help: "Unix time of the last completed janitor run",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thesis_archive_http_requests_total",
		Help: "HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thesis_archive_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	EmailFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thesis_archive_email_failures_total",
		Help: "Best-effort emails that failed to send, by kind",
	}, []string{"kind"})
)
