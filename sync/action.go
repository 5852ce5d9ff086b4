package sync

import "github.com/mina-go/node/ledger"

// Kind names one action the orchestrator's reducer can process (spec.md §6
// "Actions"), grounded on the fine-grained action-enum shape used by
// OpenMina's transition-frontier-sync reducer (original_source): each kind
// carries its own payload struct and is gated by IsEnabled before the
// reducer ever sees it, so illegal transitions are rejected at dispatch
// time rather than by ad hoc checks sprinkled through the reducer.
type Kind int

const (
	// KindInit and KindBestTipUpdate are C6's target-driven entry points
	// (spec.md §4.1 ops 1-2); every other Kind below is internal plumbing
	// the orchestrator drives once one of these has set a Target.
	KindInit Kind = iota
	KindBestTipUpdate
	// KindRewindToInit implements spec.md §7/§4.6's rewind-to-Init recovery
	// from a terminal sync error, re-entering C3 against the unchanged
	// current Target rather than waiting for a caller-supplied one.
	KindRewindToInit

	KindLedgerRootQueryInit
	KindLedgerRootQuerySuccess
	KindLedgerSyncInit
	KindLedgerSyncNodeQueryInit
	KindLedgerSyncNodeQuerySuccess
	KindLedgerSyncNodeQueryError
	KindLedgerSyncSnarkedSuccess
	KindStagedReconstructInit
	KindStagedReconstructSuccess
	KindStagedReconstructError
	KindLedgerRootSuccess
	KindBlocksInit
	KindBlockQueryInit
	KindBlockQuerySuccess
	KindBlockQueryError
	KindBlockApplySuccess
	KindBlocksSuccess
	KindCheckTimeouts
)

// Action is the dispatch envelope; at most one payload field is non-nil,
// the one matching the Kind it carries. Kinds that take no arguments
// (e.g. KindLedgerRootQueryInit, KindBlocksSuccess) carry none, and
// KindCheckTimeouts carries only Now.
type Action struct {
	Kind Kind

	Init           *InitPayload
	BestTipUpdate  *BestTipUpdatePayload

	LedgerRootQuerySuccess   *LedgerRootQuerySuccessPayload
	LedgerSyncInit           *LedgerSyncInitPayload
	LedgerSyncNodeQueryInit  *LedgerSyncNodeQueryInitPayload
	LedgerSyncNodeQuerySuccess *LedgerSyncNodeQuerySuccessPayload
	LedgerSyncNodeQueryError *LedgerSyncNodeQueryErrorPayload
	StagedReconstructSuccess *StagedReconstructSuccessPayload
	StagedReconstructError   *StagedReconstructErrorPayload
	BlocksInit               *BlocksInitPayload
	BlockQueryInit           *BlockQueryInitPayload
	BlockQuerySuccess        *BlockQuerySuccessPayload
	BlockQueryError          *BlockQueryErrorPayload
	BlockApplySuccess        *BlockApplySuccessPayload
	Now                      int64 // unix nanos, for KindCheckTimeouts
}

// InitPayload carries C6 op 1's arguments: the target to sync toward and
// the destination ledger the BFS descent fills (spec.md §4.1 "Init(target):
// Resets root-ledger sub-state to Init for the target's snarked hash.
// Enabled only when currently Idle or target differs").
type InitPayload struct {
	Target SyncTarget
	Ledger ledger.Ledger
}

// BestTipUpdatePayload carries C6 op 2's arguments (spec.md §4.1
// "BestTipUpdate(target): same as Init but preserves progress if the new
// target's snarked_ledger_hash equals the current one").
type BestTipUpdatePayload struct {
	Target SyncTarget
	Ledger ledger.Ledger
}

type BlockQueryInitPayload struct {
	PeerID string
	Height uint64
}

type LedgerRootQuerySuccessPayload struct {
	PeerID string
	Root   ledger.Field
}

type LedgerSyncInitPayload struct {
	TargetRoot ledger.Field
	Ledger     ledger.Ledger
}

type LedgerSyncNodeQueryInitPayload struct {
	PeerID  string
	Address ledger.Address
}

type LedgerSyncNodeQuerySuccessPayload struct {
	PeerID  string
	Address ledger.Address
	// Either a leaf Account or two child hashes, depending on Address.Depth().
	Account      *ledger.Account
	LeftChild    *ledger.Field
	RightChild   *ledger.Field
	Generation   uint64 // the State.Generation active when this query was issued
}

type LedgerSyncNodeQueryErrorPayload struct {
	PeerID     string
	Address    ledger.Address
	Generation uint64
}

type StagedReconstructSuccessPayload struct {
	PeerID     string
	Generation uint64
}

type StagedReconstructErrorPayload struct {
	PeerID     string
	Generation uint64
}

type BlocksInitPayload struct {
	TargetHeight uint64
	FromHeight   uint64
}

type BlockQuerySuccessPayload struct {
	PeerID     string
	Height     uint64
	Block      []byte
	Generation uint64
}

type BlockQueryErrorPayload struct {
	PeerID     string
	Height     uint64
	Generation uint64
}

type BlockApplySuccessPayload struct {
	Height uint64
}

// IsEnabled reports whether action is a legal transition from state
// (spec.md §6 "is_enabled(state)" preconditions). The reducer must never
// be called with a disabled action; Dispatch enforces this.
func IsEnabled(state *State, action Action) bool {
	switch action.Kind {
	case KindInit:
		return state.Status == StatusIdle || state.Target.SnarkedLedgerHash != action.Init.Target.SnarkedLedgerHash
	case KindBestTipUpdate:
		return state.Status != StatusIdle && state.Target != action.BestTipUpdate.Target
	case KindRewindToInit:
		return state.LedgerSync != nil || state.BlockSync != nil
	case KindLedgerRootQueryInit:
		return state.Status == StatusIdle
	case KindLedgerRootQuerySuccess:
		return state.Status == StatusLedgerRootPending
	case KindLedgerSyncInit:
		return state.Status == StatusLedgerRootPending
	case KindLedgerSyncNodeQueryInit:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseSnarkedPending &&
			len(state.LedgerSync.Frontier) > 0
	case KindLedgerSyncNodeQuerySuccess:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseSnarkedPending &&
			action.LedgerSyncNodeQuerySuccess.Generation == state.Generation
	case KindLedgerSyncNodeQueryError:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseSnarkedPending &&
			action.LedgerSyncNodeQueryError.Generation == state.Generation
	case KindLedgerSyncSnarkedSuccess:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseSnarkedPending &&
			len(state.LedgerSync.Frontier) == 0 &&
			len(state.LedgerSync.InFlight) == 0
	case KindStagedReconstructInit:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseSnarkedSuccess
	case KindStagedReconstructSuccess:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseStagedReconstructPending &&
			action.StagedReconstructSuccess.Generation == state.Generation
	case KindStagedReconstructError:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseStagedReconstructPending &&
			action.StagedReconstructError.Generation == state.Generation
	case KindLedgerRootSuccess:
		return state.Status == StatusLedgerSyncPending &&
			state.LedgerSync != nil &&
			state.LedgerSync.Phase == PhaseStagedReconstructSuccess
	case KindBlocksInit:
		return state.Status == StatusLedgerRootSuccess
	case KindBlockQueryInit:
		return state.Status == StatusBlocksPending && state.BlockSync != nil
	case KindBlockQuerySuccess:
		return state.Status == StatusBlocksPending && state.BlockSync != nil &&
			action.BlockQuerySuccess.Generation == state.Generation
	case KindBlockQueryError:
		return state.Status == StatusBlocksPending && state.BlockSync != nil &&
			action.BlockQueryError.Generation == state.Generation
	case KindBlockApplySuccess:
		return state.Status == StatusBlocksPending && state.BlockSync != nil
	case KindBlocksSuccess:
		return state.Status == StatusBlocksPending &&
			state.BlockSync != nil &&
			state.BlockSync.NextApply > state.BlockSync.TargetHeight
	case KindCheckTimeouts:
		return state.Status != StatusIdle
	default:
		return false
	}
}
