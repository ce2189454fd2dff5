package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		fulfillmentItemsTotal,
		sideEffectFailuresTotal,
		couponFallbacksTotal,
	)
}

var (
	fulfillmentItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_items_total",
			Help: "Entitlements granted by kind (subscription/book).",
		},
		[]string{"kind"},
	)

	// effect: receipt|email|subscription|mark_fulfilled|coupon_clear|converter
	sideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_side_effect_failures_total",
			Help: "Best-effort side effects that failed after the success response.",
		},
		[]string{"effect"},
	)

	couponFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_coupon_fallbacks_total",
			Help: "Checkouts where an unresolvable coupon id silently yielded no discount.",
		},
	)
)

func IncFulfillmentItem(kind string) {
	fulfillmentItemsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncSideEffectFailure(effect string) {
	sideEffectFailuresTotal.WithLabelValues(norm(effect)).Inc()
}

func IncCouponFallback() { couponFallbacksTotal.Inc() }
