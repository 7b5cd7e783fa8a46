package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "http_request_latency_seconds",
			Namespace: AeolusNamespace,
			Buckets:   prometheus.DefBuckets,
			Help:      "The latency of http operations in seconds.",
		},
		[]string{"verb"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "predictions_total",
			Namespace: AeolusNamespace,
			Help:      "AQI predictions served, by path (exact, model, unavailable).",
		},
		[]string{"path"},
	)
)
