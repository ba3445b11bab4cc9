package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhooksTotal) }

// result: processed|invalid_signature|invalid_payload
var webhooksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhooks_total",
		Help: "Incoming provider webhooks by provider and result.",
	},
	[]string{"provider", "result"},
)

func IncWebhook(provider, result string) {
	webhooksTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}
