// Package metrics exposes Prometheus collectors for the platform API
// client. The /metrics endpoint is served by internal/server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodseer_api_requests_total",
			Help: "Platform API requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodseer_api_request_duration_seconds",
			Help:    "Platform API request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, apiDuration)
}

// ObserveAPIRequest records one completed API call. A status of zero
// means the request never reached the server.
func ObserveAPIRequest(endpoint string, status int, elapsed time.Duration) {
	apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	apiDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
