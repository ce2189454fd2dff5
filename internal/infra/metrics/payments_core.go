package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		transactionsTotal,
		transactionsRevenueTotal,
	)
}

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transactions_total",
			Help: "Payment transactions by status (created/fulfilled/failed).",
		},
		[]string{"status"},
	)

	transactionsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_revenue_total",
			Help: "Total monetary value of fulfilled transactions, minor units.",
		},
		[]string{"package"},
	)
)

func IncTransaction(status string) {
	transactionsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(packageType string, amount int64) {
	transactionsRevenueTotal.WithLabelValues(norm(packageType)).Add(float64(amount))
}
