package txn

import "errors"

// FatalError conditions are block-malformed-input conditions (spec.md §7
// "Transaction-apply returns a Result whose Err path is only for
// block-malformed-input conditions"); they can never occur for a
// well-formed, correctly-ordered block and indicate either a corrupt
// block or a bug in the block producer that assembled it.
//
// Some of these conditions are shared with packages ledger/sync/worker and
// live in syncerrors instead of here; only the ones specific to fee-payer
// processing are defined locally.
var (
	ErrFeePayerNotFound            = errors.New("fee payer account does not exist")
	ErrFeePayerInsufficientBalance = errors.New("fee payer balance is insufficient to pay the fee")
	ErrNonceMismatch               = errors.New("fee payer account nonce does not match command nonce")
	ErrFeePayerSendNotPermitted    = errors.New("fee payer account does not permit Send")
)
