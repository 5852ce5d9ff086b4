package txn

import (
	"github.com/mina-go/node/ledger"
	"github.com/pkg/errors"
)

// errEmptyTransaction is returned when a Transaction carries none of its
// four possible payloads; never a block-malformed condition in practice,
// but guards against a bug in the caller assembling the dispatch value.
var errEmptyTransaction = errors.New("transaction carries no payload")

// ApplyTransaction dispatches a Transaction to the apply function for its
// carried kind (spec.md §4.3 "Dispatches by txn kind: Signed command, Fee
// transfer, Coinbase, zkApp command").
func ApplyTransaction(
	l ledger.Ledger,
	t Transaction,
	cc ConstraintConstants,
	globalSlot uint32,
	hasher LegacyHasher,
	verifier Verifier,
) (*TransactionApplied, error) {
	switch {
	case t.SignedCommand != nil:
		result, err := ApplySignedCommand(l, t.SignedCommand, cc, globalSlot, hasher, verifier)
		if err == nil {
			RecordApplied(result)
		}
		return result, err
	case t.FeeTransfer != nil:
		result, err := ApplyFeeTransfer(l, t.FeeTransfer, cc)
		if err == nil {
			RecordApplied(result)
		}
		return result, err
	case t.Coinbase != nil:
		result, err := ApplyCoinbase(l, t.Coinbase, cc)
		if err == nil {
			RecordApplied(result)
		}
		return result, err
	case t.ZkAppCommand != nil:
		result, err := ApplyZkAppCommand(l, t.ZkAppCommand, cc, globalSlot, hasher, verifier)
		if err == nil {
			RecordApplied(result)
		}
		return result, err
	default:
		return nil, errEmptyTransaction
	}
}
