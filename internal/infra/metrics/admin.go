// File: internal/infra/metrics/admin.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adminCommandTotal) }

var adminCommandTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_command_total",
		Help: "Tracks calls to the admin API.",
	},
	[]string{"command", "status"}, // status: 'ok', 'error', 'unauthorized'
)

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}
