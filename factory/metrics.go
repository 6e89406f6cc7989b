package factory

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the factory's instrumentation. A nil Registerer yields
// working but unregistered collectors.
type Metrics struct {
	poolsCreated prometheus.Counter
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		poolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pairswap",
			Subsystem: "factory",
			Name:      "pools_created_total",
			Help:      "Number of pools created by the factory.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.poolsCreated)
	}
	return m
}
