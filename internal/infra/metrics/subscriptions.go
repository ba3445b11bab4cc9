package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionTransitionsTotal,
		subscriptionPeriodEventsTotal,
	)
}

var (
	subscriptionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Subscription status changes by provider and target status.",
		},
		[]string{"provider", "status"}, // 'trialing', 'active', 'paused', 'past_due', 'unpaid', 'cancelled'
	)

	subscriptionPeriodEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_period_events_total",
			Help: "Subscriptions processed by the period worker, by event (renewed/trial_ended/cancelled).",
		},
		[]string{"event"},
	)
)

func IncSubscriptionTransition(provider, status string) {
	subscriptionTransitionsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddSubscriptionPeriodEvents(renewed, trialsEnded, cancelled int) {
	subscriptionPeriodEventsTotal.WithLabelValues("renewed").Add(float64(renewed))
	subscriptionPeriodEventsTotal.WithLabelValues("trial_ended").Add(float64(trialsEnded))
	subscriptionPeriodEventsTotal.WithLabelValues("cancelled").Add(float64(cancelled))
}
