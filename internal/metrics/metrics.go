// Package metrics exposes Prometheus instrumentation for layer builds and
// the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Layer pipeline
	LayerBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "globe_layer_build_duration_seconds",
			Help:    "Duration of layer builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	LayerBuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "globe_layer_build_errors_total",
			Help: "Total number of failed layer builds",
		},
		[]string{"kind", "error_type"}, // "fetch", "parse", "geometry", "io", "panic", "other"
	)

	LayerPrimitives = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "globe_layer_primitives",
			Help: "Boxes or line strips produced by the last build of a layer",
		},
		[]string{"layer"},
	)

	LayerSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "globe_layer_skipped_total",
			Help: "Cells or rings that produced no primitive",
		},
		[]string{"kind"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "globe_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "globe_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)
)

// RecordLayerBuild records one layer build. errorType is ignored when err is nil.
func RecordLayerBuild(layer, kind string, duration time.Duration, primitives, skipped int, errorType string, err error) {
	LayerBuildDuration.WithLabelValues(kind).Observe(duration.Seconds())

	if err != nil {
		if errorType == "" {
			errorType = "other"
		}
		LayerBuildErrors.WithLabelValues(kind, errorType).Inc()
		return
	}

	LayerPrimitives.WithLabelValues(layer).Set(float64(primitives))
	LayerSkipped.WithLabelValues(kind).Add(float64(skipped))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
