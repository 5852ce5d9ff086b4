package txn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mina-go/node/stats"
)

// Metrics are the per-apply counters ApplyTransaction updates (through
// RecordApplied) after each successful apply_transaction call, grounded on
// work/worker.go's mining-result bookkeeping pattern and wired per
// SPEC_FULL.md's C2 domain-stack section.
var (
	AppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mina",
		Subsystem: "txn",
		Name:      "applied_total",
		Help:      "Transactions applied, partitioned by outcome status.",
	}, []string{"status"})

	BurnedTokensTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mina",
		Subsystem: "txn",
		Name:      "burned_tokens_total",
		Help:      "Total tokens burned across failed fee-transfer and coinbase credits.",
	})
)

func init() {
	prometheus.MustRegister(AppliedTotal, BurnedTokensTotal)
}

// publisher is optional and set via SetStatsPublisher; a nil publisher
// means RecordApplied only updates the Prometheus counters above.
var publisher *stats.Publisher

// SetStatsPublisher wires a downstream observer publisher (spec.md §4.1 op
// 10) so every apply_transaction result is also mirrored onto its Kafka
// topics, not just counted locally.
func SetStatsPublisher(p *stats.Publisher) { publisher = p }

// RecordApplied updates the package metrics for one TransactionApplied
// result. ApplyTransaction already calls it once for every result it
// returns without error; the per-kind Apply* functions do not call it.
func RecordApplied(result *TransactionApplied) {
	status := "applied"
	if result.Status != StatusApplied {
		status = "failed"
	}
	AppliedTotal.WithLabelValues(status).Inc()
	if result.BurnedTokens > 0 {
		BurnedTokensTotal.Add(float64(result.BurnedTokens))
	}
	if publisher != nil {
		if err := publisher.PublishTransactionApplied(time.Now().UnixNano(), result.Kind.String(), status, result.BurnedTokens); err != nil {
			logger.Warn("publish transaction applied failed", "err", err)
		}
	}
}
