package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayCallsTotal,
		gatewayCallDuration,
		breakerState,
	)
}

var (
	// result: ok|rate_limited|access_denied|invalid_request|unavailable|breaker_open
	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_gateway_calls_total",
			Help: "Settlement provider calls by operation and result.",
		},
		[]string{"op", "result"},
	)

	gatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapscribe_gateway_call_duration_seconds",
			Help:    "Settlement provider call latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op"},
	)

	// 0 closed, 1 half-open, 2 open
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapscribe_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)
)

func ObserveGatewayCall(op, result string, d time.Duration) {
	gatewayCallsTotal.WithLabelValues(norm(op), norm(result)).Inc()
	gatewayCallDuration.WithLabelValues(norm(op)).Observe(d.Seconds())
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(norm(name)).Set(float64(state))
}
