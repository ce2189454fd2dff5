package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		CallbackRequests,
		CallbackDuration,
	)
}

var (
	// Count of callback handler runs grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): declined|bad_signature|bad_order|bad_schema|
	//   tx_not_found|plan_not_found|coupon_not_found|price_mismatch|config|unknown
	CallbackRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callback_requests_total",
			Help: "Count of processor callback handler runs by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of the callback handler grouped by result.
	CallbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_callback_duration_seconds",
			Help:    "Duration of the processor callback handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)
