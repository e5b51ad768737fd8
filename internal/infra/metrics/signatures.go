package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		WebhookVerifications,
		WebhookHandleDuration,
	)
}

var (
	// Count of webhook deliveries by final verdict.
	// verdict: ok|signature_mismatch|stale_timestamp|malformed_timestamp|
	// missing_signature|replayed|invalid_payload|order_not_found|
	// amount_mismatch|state_conflict
	WebhookVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_verifications_total",
			Help: "Count of webhook deliveries by verification verdict.",
		},
		[]string{"verdict"},
	)

	// Latency of webhook processing grouped by result.
	// result: accepted|rejected
	WebhookHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_handle_duration_seconds",
			Help:    "Duration of webhook processing in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"result"},
	)
)

func IncWebhookVerification(verdict string) {
	WebhookVerifications.WithLabelValues(norm(verdict)).Inc()
}

func ObserveWebhookHandle(result string, seconds float64) {
	WebhookHandleDuration.WithLabelValues(norm(result)).Observe(seconds)
}
