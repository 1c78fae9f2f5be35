// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors used by the HTTP layer and
// the video pipeline.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	LoginsTotal   prometheus.Counter
	UploadsTotal  prometheus.Counter
	StreamsTotal  prometheus.Counter
	StreamedBytes prometheus.Counter
	ActiveStreams prometheus.Gauge
}

// New registers and returns the collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motion",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "motion",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		LoginsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "motion",
			Name:      "logins_total",
			Help:      "Total successful logins.",
		}),

		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "motion",
			Name:      "video_uploads_total",
			Help:      "Total successful video uploads.",
		}),

		StreamsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "motion",
			Name:      "video_streams_total",
			Help:      "Total video stream starts.",
		}),

		StreamedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "motion",
			Name:      "video_streamed_bytes_total",
			Help:      "Total bytes served from video blobs.",
		}),

		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "motion",
			Name:      "video_active_streams",
			Help:      "Video streams currently being served.",
		}),
	}
}
