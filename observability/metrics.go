package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EconomyMetrics holds the module's prometheus instruments.
type EconomyMetrics struct {
	CommandsTotal  *prometheus.CounterVec
	CommitsTotal   *prometheus.CounterVec
	ThrottledTotal prometheus.Counter
}

// NewEconomyMetrics registers the economy counters on reg.
func NewEconomyMetrics(reg prometheus.Registerer) *EconomyMetrics {
	m := &EconomyMetrics{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pennybot",
			Subsystem: "economy",
			Name:      "commands_total",
			Help:      "Economy commands processed, by command name.",
		}, []string{"command"}),
		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pennybot",
			Subsystem: "economy",
			Name:      "commits_total",
			Help:      "Record commits attempted, by outcome.",
		}, []string{"status"}),
		ThrottledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pennybot",
			Subsystem: "economy",
			Name:      "throttled_total",
			Help:      "Commands rejected by the per-user spam throttle.",
		}),
	}
	reg.MustRegister(m.CommandsTotal, m.CommitsTotal, m.ThrottledTotal)
	return m
}
