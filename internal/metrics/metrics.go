package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Telemetry ingestion metrics
	TelemetryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurowatch_telemetry_events_total",
			Help: "Total number of telemetry readings received",
		},
		[]string{"status"},
	)

	// Correlation metrics
	CorrelationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurowatch_correlation_outcomes_total",
			Help: "Correlation engine outcomes per abnormal-flagged reading",
		},
		[]string{"outcome"},
	)

	CorrelationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neurowatch_correlation_duration_seconds",
			Help:    "Duration of a full correlation decision in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Alert fan-out metrics
	AlertsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurowatch_alerts_published_total",
			Help: "Confirmed correlated events published to the alert subject",
		},
	)

	AlertPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurowatch_alert_publish_errors_total",
			Help: "Failed attempts to publish a confirmed correlated event",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurowatch_ingest_rate_limit_hits_total",
			Help: "Telemetry posts rejected by the per-device rate limit",
		},
		[]string{"device"},
	)
)
