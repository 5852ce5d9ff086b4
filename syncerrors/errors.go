// Package syncerrors collects the sentinel errors shared across ledger,
// txn, sync and worker, the way klaytn's (unshipped in this pack, but
// referenced at blockchain/state_transition.go:28) kerrors package does.
package syncerrors

import "errors"

// Ledger (C1) errors.
var (
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrLedgerFull           = errors.New("merkle ledger has no free leaf slots")
)

// Transaction logic (C2) errors. These are FatalError conditions per
// spec.md §7 — malformed input, never a per-command business failure
// (those are reported as TransactionApplied{Status: Failed(...)}).
var (
	ErrInvalidValidUntil       = errors.New("command valid_until exceeded by current global slot")
	ErrFeeTokenNotDefault      = errors.New("fee_token must be the default token")
	ErrSignerNotFeePayer       = errors.New("signer does not match fee payer")
	ErrDuplicateDelegationTarget = errors.New("stake delegation target is the source account")
	ErrIncompatibleFeeTransferTokens = errors.New("fee transfer singles use different tokens")
	ErrFeeExceedsCoinbaseAmount = errors.New("coinbase fee transfer fee exceeds coinbase amount")
)

// Sync orchestrator (C6) / sub-engine (C3-C5) errors.
var (
	ErrNoEligiblePeers       = errors.New("no peer eligible for this query")
	ErrAttemptCapExceeded    = errors.New("attempt cap exceeded on all known peers")
	ErrHashMismatch          = errors.New("response hash does not match expected value")
	ErrStagedLedgerMismatch  = errors.New("reconstructed staged ledger hash does not match target")
	ErrBlockApplyMismatch    = errors.New("post-apply ledger hash does not match block's staged_ledger_hash")
	ErrRpcIDMismatch         = errors.New("response rpc-id does not match the in-flight request")
	ErrActionDisabled        = errors.New("action is not enabled in the current state")
)

// External worker (C7) errors.
var (
	ErrWorkerNotRunning = errors.New("external snark worker is not running")
	ErrWorkerBusy       = errors.New("external snark worker is busy")
	ErrWorkerBroken     = errors.New("external snark worker communication is broken")
	ErrAlreadyCancelled = errors.New("a cancel is already queued")
	ErrAlreadyKilled    = errors.New("kill already requested")
)
