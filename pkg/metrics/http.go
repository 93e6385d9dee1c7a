package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of API handlers, streaming responses included
	HTTPRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "card_advisor_http_request_duration_seconds",
		Help:    "Latency of card advisor HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "card_advisor_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"route", "method", "status"})

	// Events written to recommendation streams
	StreamEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "card_advisor_stream_events_total",
		Help: "Server-sent recommendation events by type",
	}, []string{"type"})
)

func Init() {
	prometheus.MustRegister(
		HTTPRequestLatency,
		HTTPRequestsTotal,
		StreamEventsTotal,
	)
}
