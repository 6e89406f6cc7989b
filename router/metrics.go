package router

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the router's instrumentation. A nil Registerer yields
// working but unregistered collectors.
type Metrics struct {
	tradesRouted *prometheus.CounterVec
	tradesFailed prometheus.Counter
	liquidityOps *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		tradesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairswap",
			Subsystem: "router",
			Name:      "trades_routed_total",
			Help:      "Completed trades by kind (exact_in / exact_out).",
		}, []string{"kind"}),
		tradesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pairswap",
			Subsystem: "router",
			Name:      "trades_failed_total",
			Help:      "Trades rejected or rolled back.",
		}),
		liquidityOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairswap",
			Subsystem: "router",
			Name:      "liquidity_ops_total",
			Help:      "Liquidity operations by kind (add / remove).",
		}, []string{"kind"}),
	}
	if registry != nil {
		registry.MustRegister(m.tradesRouted, m.tradesFailed, m.liquidityOps)
	}
	return m
}
