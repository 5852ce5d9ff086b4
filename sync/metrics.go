package sync

import "github.com/prometheus/client_golang/prometheus"

// Metrics give an operator visibility into C3/C4/C5's progress without
// polling Engine.State from another goroutine, grounded on txn/metrics.go's
// per-package prometheus counter convention.
var (
	InFlightQueries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mina",
		Subsystem: "sync",
		Name:      "inflight_queries",
		Help:      "Ledger-sync node queries currently awaiting a peer response.",
	})

	FrontierDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mina",
		Subsystem: "sync",
		Name:      "frontier_depth",
		Help:      "Ledger-sync frontier nodes not yet queried or in flight.",
	})

	RetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mina",
		Subsystem: "sync",
		Name:      "retries_total",
		Help:      "Query retries, partitioned by phase.",
	}, []string{"phase"})

	FatalTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mina",
		Subsystem: "sync",
		Name:      "fatal_total",
		Help:      "Times sync failed fatally: an attempt cap exceeded or a block apply error.",
	})
)

func init() {
	prometheus.MustRegister(InFlightQueries, FrontierDepth, RetriesTotal, FatalTotal)
}

// recordQueueDepths refreshes the two gauges from the current ledger-sync
// state; called after every reduce that touches Frontier/InFlight.
func recordQueueDepths(ls *LedgerSyncState) {
	InFlightQueries.Set(float64(len(ls.InFlight)))
	FrontierDepth.Set(float64(len(ls.Frontier)))
}
