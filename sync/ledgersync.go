package sync

import (
	"context"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// stepLedgerSync drives the C3 BFS descent and, once it completes, the C4
// staged-ledger reconstruction, issuing up to e.concurrency queries in
// flight at once (spec.md §6 "bounded fan-out").
func (e *Engine) stepLedgerSync(ctx context.Context) {
	ls := e.state.LedgerSync
	switch ls.Phase {
	case PhaseSnarkedPending:
		e.fillLedgerQuerySlots(ctx)
	case PhaseSnarkedSuccess:
		e.enqueue(Action{Kind: KindStagedReconstructInit})
	case PhaseStagedReconstructPending:
		go e.queryStagedReconstruct(ctx, e.state.Generation)
	case PhaseStagedReconstructSuccess:
		e.enqueue(Action{Kind: KindLedgerRootSuccess})
	}
}

func (e *Engine) fillLedgerQuerySlots(ctx context.Context) {
	ls := e.state.LedgerSync
	gen := e.state.Generation
	exclude := make(map[string]bool, len(ls.InFlight))
	for _, q := range ls.InFlight {
		exclude[q.PeerID] = true
	}
	for len(ls.InFlight) < e.concurrency && len(ls.Frontier) > 0 {
		node := ls.Frontier[0]
		peer, err := PickPeer(e.channel, exclude)
		if err != nil {
			logger.Warn("no peer available for ledger node query", "err", err)
			return
		}
		exclude[peer] = true
		e.dispatchLocal(Action{Kind: KindLedgerSyncNodeQueryInit, LedgerSyncNodeQueryInit: &LedgerSyncNodeQueryInitPayload{PeerID: peer, Address: node.Address}})
		go e.queryLedgerNode(ctx, peer, node, gen)
	}
	if len(ls.Frontier) == 0 && len(ls.InFlight) == 0 {
		e.enqueue(Action{Kind: KindLedgerSyncSnarkedSuccess})
	}
}

// dispatchLocal applies an action synchronously within the calling
// goroutine (the Engine's own event loop), used only for actions effects
// code issues about its own upcoming work, never for results arriving from
// peers (those always go through e.enqueue so they funnel through the
// single-owner channel).
func (e *Engine) dispatchLocal(a Action) {
	if !IsEnabled(e.state, a) {
		return
	}
	_ = Reduce(e.state, a)
}

func (e *Engine) queryLedgerNode(ctx context.Context, peer string, node FrontierNode, gen uint64) {
	acc, left, right, err := e.channel.QueryLedgerNode(ctx, peer, node.Address)
	if err != nil {
		e.reportLedgerNodeError(peer, node, gen)
		return
	}

	if node.Address.Depth() == ledger.LedgerDepth {
		if acc == nil || e.hasher.HashAccount(acc) != node.ExpectedHash {
			e.reportLedgerNodeError(peer, node, gen)
			return
		}
		e.enqueue(Action{Kind: KindLedgerSyncNodeQuerySuccess, LedgerSyncNodeQuerySuccess: &LedgerSyncNodeQuerySuccessPayload{
			PeerID: peer, Address: node.Address, Account: acc, Generation: gen,
		}})
		return
	}

	if left == nil || right == nil || e.hasher.HashInternal(*left, *right, ledger.LedgerDepth-node.Address.Depth()) != node.ExpectedHash {
		e.reportLedgerNodeError(peer, node, gen)
		return
	}
	e.enqueue(Action{Kind: KindLedgerSyncNodeQuerySuccess, LedgerSyncNodeQuerySuccess: &LedgerSyncNodeQuerySuccessPayload{
		PeerID: peer, Address: node.Address, LeftChild: left, RightChild: right, Generation: gen,
	}})
}

func (e *Engine) reportLedgerNodeError(peer string, node FrontierNode, gen uint64) {
	e.enqueue(Action{Kind: KindLedgerSyncNodeQueryError, LedgerSyncNodeQueryError: &LedgerSyncNodeQueryErrorPayload{PeerID: peer, Address: node.Address, Generation: gen}})
}

// checkLedgerSyncAttemptCaps is invoked from CheckTimeouts (timeouts.go)
// and declares the sync fatally stuck if any in-flight query's address has
// been queried MaxAttempts times (spec.md §6).
func (e *Engine) checkLedgerSyncAttemptCaps() {
	ls := e.state.LedgerSync
	if ls == nil {
		return
	}
	for _, q := range ls.InFlight {
		if err := CheckAttemptCap(q.Attempt); err != nil {
			e.fatal(syncerrors.ErrAttemptCapExceeded)
			return
		}
	}
}
