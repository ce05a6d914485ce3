package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal - requests by route and status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlboard_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration - request latency by route
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlboard_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ExperimentsCreated - create calls split by created/existing
	ExperimentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlboard_experiments_created_total",
			Help: "Experiment create calls by result (created, existing)",
		},
		[]string{"result"},
	)

	ExperimentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mlboard_experiments_deleted_total",
			Help: "Total number of deleted experiments",
		},
	)

	// TasksEnqueued - background tasks by type and outcome
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlboard_tasks_enqueued_total",
			Help: "Background tasks enqueued by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)
