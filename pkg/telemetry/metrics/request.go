package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics for proxied requests.
//
// Metrics:
//   - <ns>_requests_total: request count by route, method, status, outcome
//   - <ns>_request_duration_seconds: duration histogram by route
//   - <ns>_request_bytes: request/response size histogram by direction
//   - <ns>_active_streams: number of streaming responses in flight
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestBytes    *prometheus.HistogramVec
	activeStreams   prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the
// provided registry.
func NewRequestMetrics(namespace string, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of proxied requests",
			},
			[]string{"route", "method", "status", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests in seconds",
				// Streamed completions run for minutes; extend the
				// default buckets accordingly.
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"route"},
		),

		requestBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_bytes",
				Help:      "Size of request and response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to 64MB
			},
			[]string{"route", "direction"},
		),

		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_streams",
				Help:      "Number of streaming responses currently being relayed",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.requestBytes,
		rm.activeStreams,
	)

	return rm
}

// RecordRequest records metrics for a finalized request.
func (rm *RequestMetrics) RecordRequest(route, method string, status int, outcome string, duration time.Duration, bytesIn, bytesOut int64) {
	rm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status), outcome).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())

	if bytesIn > 0 {
		rm.requestBytes.WithLabelValues(route, "in").Observe(float64(bytesIn))
	}
	if bytesOut > 0 {
		rm.requestBytes.WithLabelValues(route, "out").Observe(float64(bytesOut))
	}
}

// StreamStarted marks a streaming relay as in flight.
func (rm *RequestMetrics) StreamStarted() {
	rm.activeStreams.Inc()
}

// StreamFinished marks a streaming relay as done.
func (rm *RequestMetrics) StreamFinished() {
	rm.activeStreams.Dec()
}
