package sync

import (
	"time"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

func errActionDisabled(kind Kind) error {
	return syncerrors.ErrActionDisabled
}

// Reduce applies action to state in place, returning an error only if
// action is disabled (a caller bug: Dispatch always checks IsEnabled
// first, so this is the reducer's own defense-in-depth copy of that
// check). Reduce never performs I/O; every peer query or timer it needs is
// issued by the matching function in effects.go after Reduce returns.
func Reduce(state *State, action Action) error {
	if !IsEnabled(state, action) {
		return errActionDisabled(action.Kind)
	}

	switch action.Kind {
	case KindInit:
		p := action.Init
		state.Target = p.Target
		state.Generation++
		state.BlockSync = nil
		resetLedgerSync(state, p.Target, p.Ledger)
		state.Status = StatusLedgerSyncPending

	case KindBestTipUpdate:
		p := action.BestTipUpdate
		sameSnarkedLedger := state.Target.SnarkedLedgerHash == p.Target.SnarkedLedgerHash
		state.Target = p.Target
		state.Generation++
		state.BlockSync = nil
		if sameSnarkedLedger {
			// only the block-sync chain is stale; the BFS descent already
			// in progress (or finished) toward the unchanged snarked
			// ledger hash survives untouched.
			if state.Status == StatusBlocksPending || state.Status == StatusBlocksSuccess {
				state.Status = StatusLedgerRootSuccess
			}
		} else {
			resetLedgerSync(state, p.Target, p.Ledger)
			state.Status = StatusLedgerSyncPending
		}

	case KindRewindToInit:
		// spec.md §7/§4.6: a terminal error rewinds to Init for the
		// current (unchanged) target, discarding all in-flight progress.
		state.Generation++
		state.BlockSync = nil
		if state.LedgerSync != nil {
			resetLedgerSync(state, state.Target, state.LedgerSync.Ledger)
			state.Status = StatusLedgerSyncPending
		} else {
			state.LedgerSync = nil
			state.Status = StatusIdle
		}

	case KindLedgerRootQueryInit:
		state.Status = StatusLedgerRootPending
		state.LedgerRootPeerQuery = &QueryAttempt{Attempt: 1, SentAt: time.Now(), Generation: state.Generation}

	case KindLedgerRootQuerySuccess:
		// target root recorded by the subsequent LedgerSyncInit action.
		state.LedgerRootPeerQuery = nil

	case KindLedgerSyncInit:
		p := action.LedgerSyncInit
		state.Target = SyncTarget{SnarkedLedgerHash: p.TargetRoot}
		state.LedgerSync = &LedgerSyncState{
			Phase:      PhaseSnarkedPending,
			TargetRoot: p.TargetRoot,
			Ledger:     p.Ledger,
			Frontier:   []FrontierNode{{Address: ledger.RootAddress(), ExpectedHash: p.TargetRoot}},
			InFlight:   make(map[string]QueryAttempt),
		}
		state.Status = StatusLedgerSyncPending

	case KindLedgerSyncNodeQueryInit:
		p := action.LedgerSyncNodeQueryInit
		key := frontierKey(p.Address)
		expected := expectedHashFor(state.LedgerSync, p.Address)
		state.LedgerSync.InFlight[key] = QueryAttempt{
			PeerID:       p.PeerID,
			Attempt:      state.Attempts[key] + 1,
			SentAt:       time.Now(),
			ExpectedHash: expected,
			Generation:   state.Generation,
		}
		state.Attempts[key]++
		removeFrontier(state.LedgerSync, p.Address)

	case KindLedgerSyncNodeQuerySuccess:
		p := action.LedgerSyncNodeQuerySuccess
		applyLedgerSyncNodeQuerySuccess(state.LedgerSync, p)

	case KindLedgerSyncNodeQueryError:
		p := action.LedgerSyncNodeQueryError
		key := frontierKey(p.Address)
		expected := state.LedgerSync.InFlight[key].ExpectedHash
		delete(state.LedgerSync.InFlight, key)
		state.LedgerSync.Frontier = append(state.LedgerSync.Frontier, FrontierNode{
			Address:      p.Address,
			ExpectedHash: expected,
		})
		RetriesTotal.WithLabelValues("ledger_sync").Inc()

	case KindLedgerSyncSnarkedSuccess:
		state.LedgerSync.Phase = PhaseSnarkedSuccess

	case KindStagedReconstructInit:
		state.LedgerSync.Phase = PhaseStagedReconstructPending
		state.LedgerSync.StagedReconstructAttempt = &QueryAttempt{Attempt: 1, SentAt: time.Now(), Generation: state.Generation}

	case KindStagedReconstructSuccess:
		state.LedgerSync.Phase = PhaseStagedReconstructSuccess
		state.LedgerSync.StagedReconstructAttempt = nil

	case KindStagedReconstructError:
		state.LedgerSync.StagedReconstructAttempt = &QueryAttempt{
			Attempt:    state.LedgerSync.StagedReconstructAttempt.Attempt + 1,
			SentAt:     time.Now(),
			Generation: state.Generation,
		}

	case KindLedgerRootSuccess:
		state.Status = StatusLedgerRootSuccess

	case KindBlocksInit:
		p := action.BlocksInit
		state.BlockSync = &BlockSyncState{
			TargetHeight: p.TargetHeight,
			NextApply:    p.FromHeight,
			Pending:      make(map[uint64]QueryAttempt),
			Fetched:      make(map[uint64][]byte),
		}
		state.Status = StatusBlocksPending

	case KindBlockQueryInit:
		p := action.BlockQueryInit
		state.BlockSync.Pending[p.Height] = QueryAttempt{
			PeerID:     p.PeerID,
			Attempt:    1,
			SentAt:     time.Now(),
			Generation: state.Generation,
		}

	case KindBlockQuerySuccess:
		p := action.BlockQuerySuccess
		delete(state.BlockSync.Pending, p.Height)
		state.BlockSync.Fetched[p.Height] = p.Block

	case KindBlockQueryError:
		p := action.BlockQueryError
		attempt := state.BlockSync.Pending[p.Height]
		attempt.Attempt++
		attempt.SentAt = time.Now()
		state.BlockSync.Pending[p.Height] = attempt
		RetriesTotal.WithLabelValues("block_sync").Inc()

	case KindBlockApplySuccess:
		p := action.BlockApplySuccess
		delete(state.BlockSync.Fetched, p.Height)
		if p.Height == state.BlockSync.NextApply {
			state.BlockSync.NextApply++
		}

	case KindBlocksSuccess:
		state.Status = StatusBlocksSuccess

	case KindCheckTimeouts:
		// purely triggers effects.go's CheckTimeouts scan; no state change.
	}
	if state.LedgerSync != nil {
		recordQueueDepths(state.LedgerSync)
	}
	return nil
}

// resetLedgerSync (re)starts the C3 BFS descent toward target's snarked
// ledger hash over dest, shared by KindInit, KindBestTipUpdate's differing-
// target branch, and KindRewindToInit.
func resetLedgerSync(state *State, target SyncTarget, dest ledger.Ledger) {
	state.LedgerSync = &LedgerSyncState{
		Phase:      PhaseSnarkedPending,
		TargetRoot: target.SnarkedLedgerHash,
		Ledger:     dest,
		Frontier:   []FrontierNode{{Address: ledger.RootAddress(), ExpectedHash: target.SnarkedLedgerHash}},
		InFlight:   make(map[string]QueryAttempt),
	}
}

func applyLedgerSyncNodeQuerySuccess(ls *LedgerSyncState, p *LedgerSyncNodeQuerySuccessPayload) {
	key := frontierKey(p.Address)
	delete(ls.InFlight, key)

	if p.Address.Depth() == ledger.LedgerDepth {
		ls.Ledger.Set(p.Address, p.Account)
		return
	}

	left := p.Address.Child(ledger.Left)
	right := p.Address.Child(ledger.Right)
	if p.LeftChild != nil {
		ls.Frontier = append(ls.Frontier, FrontierNode{Address: left, ExpectedHash: *p.LeftChild})
	}
	if p.RightChild != nil {
		ls.Frontier = append(ls.Frontier, FrontierNode{Address: right, ExpectedHash: *p.RightChild})
	}
}

func frontierKey(addr ledger.Address) string {
	return addr.String()
}

func removeFrontier(ls *LedgerSyncState, addr ledger.Address) {
	for i, f := range ls.Frontier {
		if f.Address.Equal(addr) {
			ls.Frontier = append(ls.Frontier[:i], ls.Frontier[i+1:]...)
			return
		}
	}
}

func expectedHashFor(ls *LedgerSyncState, addr ledger.Address) ledger.Field {
	for _, f := range ls.Frontier {
		if f.Address.Equal(addr) {
			return f.ExpectedHash
		}
	}
	return ledger.Field{}
}
