package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentFeesTotal,
		refundsTotal,
		refundedAmountTotal,
		confirmDuration,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment intents by provider and status (pending/succeeded/failed/cancelled).",
		},
		[]string{"provider", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	paymentFeesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_fees_total",
			Help: "Fees withheld from successful payments, by currency and kind (platform/provider).",
		},
		[]string{"currency", "kind"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Refund transactions by provider and kind (full/partial).",
		},
		[]string{"provider", "kind"},
	)

	refundedAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunded_amount_total",
			Help: "Refunded monetary value, labeled by currency.",
		},
		[]string{"currency"},
	)

	confirmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_confirm_duration_seconds",
			Help:    "Duration of payment intent confirmation by provider and result.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"provider", "result"},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func AddPaymentFees(currency string, platform, provider float64) {
	paymentFeesTotal.WithLabelValues(norm(currency), "platform").Add(platform)
	paymentFeesTotal.WithLabelValues(norm(currency), "provider").Add(provider)
}

func IncRefund(provider string, partial bool, currency string, amount int64) {
	kind := "full"
	if partial {
		kind = "partial"
	}
	refundsTotal.WithLabelValues(norm(provider), kind).Inc()
	refundedAmountTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func ObserveConfirm(provider, result string, d time.Duration) {
	confirmDuration.WithLabelValues(norm(provider), norm(result)).Observe(d.Seconds())
}
