package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests handled by the relay service",
		},
		[]string{"method", "path"},
	)

	RelayRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RelayRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_class"},
	)
)
