package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lunch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Slack metrics
	MentionsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lunch_slack_mentions_received_total",
			Help: "Total number of app_mention events received",
		},
	)

	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_slack_messages_posted_total",
			Help: "Total number of confirmation messages posted",
		},
		[]string{"status"},
	)

	// Workflow metrics
	WorkflowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_workflows_processed_total",
			Help: "Total number of lunch workflows processed",
		},
		[]string{"intent", "status"},
	)

	WorkflowDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lunch_workflow_duration_seconds",
			Help:    "Duration of a lunch workflow in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Enrichment metrics
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_lookups_total",
			Help: "Total number of directory and calendar lookups",
		},
		[]string{"kind", "status"},
	)

	// Storage metrics
	BookingsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunch_bookings_stored_total",
			Help: "Total number of booking records written",
		},
		[]string{"status"},
	)
)
