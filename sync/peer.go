package sync

import (
	"context"

	"github.com/mina-go/node/ledger"
)

// RpcChannel is the abstract peer-query capability the orchestrator
// consumes as a black box (spec.md §1 "peer-to-peer networking ... consumed
// as a black-box capability"); nothing in this package dials a connection
// or frames a wire message itself.
type RpcChannel interface {
	// EligiblePeers returns candidate peer IDs to query next, in the order
	// they should be tried (spec.md §6 "peer selection").
	EligiblePeers() []string

	// QueryLedgerRoot asks peerID for its current snarked ledger root.
	QueryLedgerRoot(ctx context.Context, peerID string) (ledger.Field, error)

	// QueryLedgerNode asks peerID for the account (leaf) or child hashes
	// (interior) at addr.
	QueryLedgerNode(ctx context.Context, peerID string, addr ledger.Address) (*ledger.Account, *ledger.Field, *ledger.Field, error)

	// QueryStagedLedgerAux asks peerID for the staged-ledger auxiliary data
	// needed to reconstruct it over the now-synced snarked ledger (C4).
	QueryStagedLedgerAux(ctx context.Context, peerID string) ([]byte, error)

	// QueryBlock asks peerID for the block at height.
	QueryBlock(ctx context.Context, peerID string, height uint64) ([]byte, error)
}

