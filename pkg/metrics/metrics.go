// Package metrics registers the Prometheus collectors exposed on the metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// NotificationsCreated counts in-app notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// EmailsSent counts outbound email attempts by kind and result (sent|failed|disabled).
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_emails_sent_total",
			Help: "Total number of outbound emails",
		},
		[]string{"kind", "result"},
	)

	// PDFExports counts rendered documents by kind (minutes|attendance).
	PDFExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_pdf_exports_total",
			Help: "Total number of PDF exports",
		},
		[]string{"kind"},
	)

	// PDFPages observes page counts of rendered documents.
	PDFPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notula_pdf_pages",
			Help:    "Pages per exported document",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"kind"},
	)

	// MaintenanceRuns counts background job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_maintenance_runs_total",
			Help: "Total number of background job runs",
		},
		[]string{"job", "result"},
	)

	// RealtimeConnections tracks open notification stream sockets.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notula_realtime_connections",
			Help: "Open realtime websocket connections",
		},
	)

	// RealtimeDropped counts subscribers disconnected for falling behind, by stream.
	RealtimeDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notula_realtime_dropped_total",
			Help: "Slow realtime subscribers disconnected",
		},
		[]string{"stream"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notula_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
