package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FootageAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "footage_admitted_total",
		Help:      "Total number of footage uploads admitted for processing",
	})

	DetectionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "detections_finished_total",
		Help:      "Detector runs by terminal outcome",
	}, []string{"outcome"})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vigil",
		Name:      "detection_duration_seconds",
		Help:      "Wall-clock duration of detector runs",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	ActiveDetections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "active_detections",
		Help:      "Number of detector processes currently running",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vigil",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
