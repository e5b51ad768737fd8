package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		OrdersCreated,
		PaymentStatusTotal,
		GatewayRequestDuration,
	)
}

var (
	// Count of merchant order creations by outcome.
	// outcome: ok|invalid|gateway_error|storage_error
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Count of order creations by outcome.",
		},
		[]string{"outcome"},
	)

	// Terminal payment statuses applied to orders.
	// status: completed|failed|timed_out|unknown
	PaymentStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_total",
			Help: "Payment statuses applied to orders.",
		},
		[]string{"status"},
	)

	// Latency of outbound gateway calls.
	// op: create|query; outcome: ok|rejected|transport_error
	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of signed gateway calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op", "outcome"},
	)
)

func IncOrderCreated(outcome string) {
	OrdersCreated.WithLabelValues(norm(outcome)).Inc()
}

func IncPaymentStatus(status string) {
	PaymentStatusTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveGatewayRequest(op, outcome string, seconds float64) {
	GatewayRequestDuration.WithLabelValues(norm(op), norm(outcome)).Observe(seconds)
}
