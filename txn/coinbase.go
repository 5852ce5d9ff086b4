package txn

import (
	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// ApplyCoinbase applies the block-reward transaction, optionally splitting
// part of it to a third party via an attached CoinbaseFeeTransfer (spec.md
// §4.3, GLOSSARY "Coinbase"). A fee transfer whose fee exceeds the coinbase
// amount is block-malformed (spec.md §7 Configuration error).
func ApplyCoinbase(l ledger.Ledger, cb *Coinbase, cc ConstraintConstants) (*TransactionApplied, error) {
	if cb.FeeTransfer != nil && cb.FeeTransfer.Fee > cb.Amount {
		return nil, syncerrors.ErrFeeExceedsCoinbaseAmount
	}

	result := &TransactionApplied{
		PreApplyRoot: l.MerkleRoot(),
		Kind:         KindCoinbase,
		Coinbase:     cb,
		Status:       StatusApplied,
	}

	var newAccounts []ledger.AccountId
	var burnedTotal uint64
	var failures [][]FailureTag

	receiverAmount := cb.Amount
	if cb.FeeTransfer != nil {
		receiverAmount -= cb.FeeTransfer.Fee

		_, burned, created, denied, err := creditCoinbaseLike(l, cc, cb.FeeTransfer.Receiver, cb.FeeTransfer.Fee)
		if err != nil {
			return nil, err
		}
		burnedTotal += burned
		if created {
			newAccounts = append(newAccounts, cb.FeeTransfer.Receiver)
		}
		if denied {
			failures = append(failures, []FailureTag{FailureUpdateNotPermittedBalance})
		}
	}

	_, burned, created, denied, err := creditCoinbaseLike(l, cc, cb.Receiver, receiverAmount)
	if err != nil {
		return nil, err
	}
	burnedTotal += burned
	if created {
		newAccounts = append(newAccounts, cb.Receiver)
	}
	if denied {
		failures = append(failures, []FailureTag{FailureUpdateNotPermittedBalance})
	}

	result.NewAccounts = newAccounts
	result.BurnedTokens = burnedTotal
	if len(failures) > 0 {
		result.Status = StatusFailed
		result.Failures = failures
	}
	return result, nil
}
