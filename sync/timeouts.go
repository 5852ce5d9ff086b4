package sync

import (
	"time"

	"github.com/mina-go/node/ledger"
)

func addressFromKey(key string) ledger.Address {
	return ledger.AddressFromKey(key)
}

// QueryTimeout bounds how long a single in-flight query may run before it
// is treated as failed and retried against another peer (spec.md §6
// "timeout").
const QueryTimeout = 10 * time.Second

// checkTimeouts is invoked on every KindCheckTimeouts tick (effects.go's
// run loop fires one per second): it re-queues any query that has been
// in flight longer than QueryTimeout and declares the sync fatally stuck
// if any query has exhausted MaxAttempts.
func (e *Engine) checkTimeouts() {
	now := time.Now()
	if ls := e.state.LedgerSync; ls != nil {
		for key, q := range ls.InFlight {
			if now.Sub(q.SentAt) > QueryTimeout {
				addr := addressFromKey(key)
				e.enqueue(Action{Kind: KindLedgerSyncNodeQueryError, LedgerSyncNodeQueryError: &LedgerSyncNodeQueryErrorPayload{PeerID: q.PeerID, Address: addr, Generation: q.Generation}})
			}
		}
		e.checkLedgerSyncAttemptCaps()
	}
	if bs := e.state.BlockSync; bs != nil {
		for h, q := range bs.Pending {
			if now.Sub(q.SentAt) > QueryTimeout {
				e.enqueue(Action{Kind: KindBlockQueryError, BlockQueryError: &BlockQueryErrorPayload{PeerID: q.PeerID, Height: h, Generation: q.Generation}})
			}
			if err := CheckAttemptCap(q.Attempt); err != nil {
				e.fatal(err)
			}
		}
	}
}
