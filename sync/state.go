// Package sync implements the transition-frontier sync engine: the ledger
// BFS descent (C3), staged-ledger reconstruction (C4), block fetch/apply
// (C5), and the reducer/effects orchestrator that drives them (C6).
package sync

import (
	"time"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/log"
)

var logger = log.NewModuleLogger(log.SyncEngine)

// Status is the coarse phase of the orchestrator's state machine (spec.md
// §5 "Sync State").
type Status int

const (
	StatusIdle Status = iota
	StatusLedgerRootPending
	StatusLedgerSyncPending
	StatusLedgerRootSuccess
	StatusBlocksPending
	StatusBlocksSuccess
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLedgerRootPending:
		return "LedgerRootPending"
	case StatusLedgerSyncPending:
		return "LedgerSyncPending"
	case StatusLedgerRootSuccess:
		return "LedgerRootSuccess"
	case StatusBlocksPending:
		return "BlocksPending"
	case StatusBlocksSuccess:
		return "BlocksSuccess"
	default:
		return "Unknown"
	}
}

// LedgerSyncPhase is the sub-state of a ledger sync in progress (spec.md §5
// "LedgerSyncState"): the snarked-ledger BFS descent runs first, then the
// staged-ledger reconstruction.
type LedgerSyncPhase int

const (
	PhaseSnarkedPending LedgerSyncPhase = iota
	PhaseSnarkedSuccess
	PhaseStagedReconstructPending
	PhaseStagedReconstructSuccess
)

// SyncTarget is the announced best-tip block plus its root snarked-ledger
// hash (spec.md §3 "SyncTarget"): C6's Init/BestTipUpdate operations are
// keyed on it, and a change of target is what triggers a rewind.
type SyncTarget struct {
	SnarkedLedgerHash ledger.Field
	BestTipHeight     uint64
}

// QueryAttempt tracks one outstanding or completed request to a peer,
// shared by the C3 ledger descent and the C5 block fetcher (spec.md §6
// "Attempt cap, retry, backoff"). Generation stamps the attempt with the
// State.Generation value active when it was issued, standing in for
// spec.md §3's per-request rpc_id: a response whose Generation no longer
// matches State.Generation is a stale in-flight reply from before the last
// Init/BestTipUpdate/rewind and is discarded rather than applied (spec.md
// §3 "in-flight responses are ignored by rpc-id mismatch").
type QueryAttempt struct {
	PeerID       string
	Attempt      int
	SentAt       time.Time
	TimeoutAt    time.Time
	ExpectedHash ledger.Field // only meaningful for C3 node queries
	Generation   uint64
}

// FrontierNode is one pending node of the C3 BFS descent over the snarked
// ledger's Merkle tree.
type FrontierNode struct {
	Address      ledger.Address
	ExpectedHash ledger.Field
}

// LedgerSyncState is the working state of an in-flight C3/C4 ledger sync.
type LedgerSyncState struct {
	Phase LedgerSyncPhase

	TargetRoot ledger.Field
	Ledger     ledger.Ledger

	Frontier []FrontierNode
	InFlight map[string]QueryAttempt // keyed by Address.String()-like key

	StagedReconstructAttempt *QueryAttempt
}

// BlockSyncState is the working state of an in-flight C5 block fetch/apply
// run: a contiguous range of blocks between the previous frontier root and
// the new target, fetched possibly out of order and applied in sequence.
type BlockSyncState struct {
	TargetHeight uint64
	NextApply    uint64
	Pending      map[uint64]QueryAttempt
	Fetched      map[uint64][]byte // opaque block payloads, applied in order
}

// State is the orchestrator's full state (spec.md §5 "Sync State").
type State struct {
	Status Status

	// Target and Generation implement C6's Init/BestTipUpdate entry points
	// (spec.md §4.1 ops 1-2): Target is the current SyncTarget, and
	// Generation is bumped by every Init/BestTipUpdate/rewind so in-flight
	// QueryAttempts issued against a superseded target can be told apart
	// from current ones.
	Target     SyncTarget
	Generation uint64

	LedgerRootPeerQuery *QueryAttempt
	LedgerSync          *LedgerSyncState
	BlockSync           *BlockSyncState

	Attempts    map[string]int // per-address ledger query count, keyed by Address.String() (spec.md §6 attempt cap)
	LastTickAt  time.Time
}

// NewState returns the orchestrator's initial Idle state.
func NewState() *State {
	return &State{
		Status:   StatusIdle,
		Attempts: make(map[string]int),
	}
}
