package statediff

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the differ's instrumentation. A nil Registerer yields
// working but unregistered collectors.
type Metrics struct {
	diffDuration prometheus.Histogram
	poolsChanged prometheus.Counter
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		diffDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pairswap",
			Subsystem: "statediff",
			Name:      "diff_duration_seconds",
			Help:      "Time spent computing a snapshot diff.",
		}),
		poolsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pairswap",
			Subsystem: "statediff",
			Name:      "pools_changed_total",
			Help:      "Pool entries emitted in diffs.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.diffDuration, m.poolsChanged)
	}
	return m
}
