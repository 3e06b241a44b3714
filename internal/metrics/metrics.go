package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesProcessed counts entry transitions by outcome (posted, skipped)
	EntriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amortization_entries_processed_total",
			Help: "Amortization entries moved out of PENDING",
		},
		[]string{"outcome", "schedule_type"},
	)

	// PostingFailures counts failed posting attempts by reason
	PostingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amortization_posting_failures_total",
			Help: "Failed amortization entry postings",
		},
		[]string{"reason"},
	)

	// ScheduleTransitions counts schedule lifecycle events (created, completed, cancelled, deleted)
	ScheduleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amortization_schedule_events_total",
			Help: "Amortization schedule lifecycle events",
		},
		[]string{"event"},
	)

	// ReportsGenerated counts depreciation reports
	ReportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "depreciation_reports_generated_total",
			Help: "Depreciation reports generated",
		},
	)

	// AutoPostRuns counts scheduler runs by status
	AutoPostRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amortization_auto_post_runs_total",
			Help: "Auto-post job runs",
		},
		[]string{"status"},
	)

	// HTTPRequests counts API requests by method, route template and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
