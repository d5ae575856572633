package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by origin (manual|automatic).
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posada_notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"origin"},
	)

	// NotificationsSwept counts notifications removed by the expiry sweep.
	NotificationsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posada_notifications_swept_total",
			Help: "Total number of expired notifications removed",
		},
	)

	// ReadMarks counts read markers written for (notification, user) pairs.
	ReadMarks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "posada_notification_read_marks_total",
			Help: "Total number of notification read markers created",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "posada_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
