package txn

import (
	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// creditCoinbaseLike credits a protocol-originated payment (fee transfer or
// coinbase) to id, gated on the receiver's Receive permission exactly like a
// payment body's receiver check (signedcommand.go's applyPayment): a denied
// receiver burns the whole amount rather than being credited (spec.md §4.3
// "a receiver whose permission check is Receive; failures burn the fee" /
// "Permission failures burn tokens"). When the account is freshly created it
// always carries DefaultPermissions, so denial can only happen against an
// account that already existed.
func creditCoinbaseLike(l ledger.Ledger, cc ConstraintConstants, id ledger.AccountId, amount uint64) (credited, burned uint64, created, denied bool, err error) {
	result, acc, loc, err := l.GetOrCreate(id)
	if err != nil {
		return 0, 0, false, false, err
	}
	if acc.Permissions.Receive == ledger.PermImpossible {
		return 0, amount, false, true, nil
	}
	if result == ledger.Added {
		if amount < cc.AccountCreationFee {
			return 0, amount, true, false, nil
		}
		credited = amount - cc.AccountCreationFee
	} else {
		credited = amount
	}
	acc.Balance += credited
	l.Set(loc, acc)
	return credited, 0, result == ledger.Added, false, nil
}

// ApplyFeeTransfer applies a one- or two-receiver fee transfer (spec.md
// §4.3), grounded on blockchain/state_transition.go's reward-distribution
// path (block.Coinbase()-style unconditional credit, no sender debit).
func ApplyFeeTransfer(l ledger.Ledger, ft *FeeTransfer, cc ConstraintConstants) (*TransactionApplied, error) {
	if ft.Kind == FeeTransferTwo && ft.First.Receiver.TokenId != ft.Second.Receiver.TokenId {
		return nil, syncerrors.ErrIncompatibleFeeTransferTokens
	}

	result := &TransactionApplied{
		PreApplyRoot: l.MerkleRoot(),
		Kind:         KindFeeTransfer,
		FeeTransfer:  ft,
		Status:       StatusApplied,
	}

	var newAccounts []ledger.AccountId
	var burnedTotal uint64
	var failures [][]FailureTag

	_, burned, created, denied, err := creditCoinbaseLike(l, cc, ft.First.Receiver, ft.First.Fee)
	if err != nil {
		return nil, err
	}
	burnedTotal += burned
	if created {
		newAccounts = append(newAccounts, ft.First.Receiver)
	}
	if denied {
		failures = append(failures, []FailureTag{FailureUpdateNotPermittedBalance})
	}

	if ft.Kind == FeeTransferTwo {
		_, burned, created, denied, err := creditCoinbaseLike(l, cc, ft.Second.Receiver, ft.Second.Fee)
		if err != nil {
			return nil, err
		}
		burnedTotal += burned
		if created {
			newAccounts = append(newAccounts, ft.Second.Receiver)
		}
		if denied {
			failures = append(failures, []FailureTag{FailureUpdateNotPermittedBalance})
		}
	}

	result.NewAccounts = newAccounts
	result.BurnedTokens = burnedTotal
	if len(failures) > 0 {
		result.Status = StatusFailed
		result.Failures = failures
	}
	return result, nil
}
