package txn

import (
	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// ConstraintConstants are the network constants apply_transaction needs
// (spec.md §4.3); grounded on blockchain/state_transition.go's gas-pool
// constants threaded through a StateTransition.
type ConstraintConstants struct {
	AccountCreationFee uint64
}

// applyFeePayer implements spec.md §4.3 step 2: locate the fee payer,
// validate it, deduct the fee, advance the nonce and receipt chain, then
// re-validate timing. Every check up to and including the balance/nonce
// check is a FatalError — a well-formed block never includes a command
// whose fee payer cannot pay (spec.md §7) — while the post-deduction
// timing re-check degrades to a Failed-status bucket, since the fee
// deduction has already been committed by the time it runs.
func applyFeePayer(
	l ledger.Ledger,
	payload SignedCommandPayload,
	signer ledger.PublicKey,
	globalSlot uint32,
	hasher LegacyHasher,
) (loc ledger.Address, acc *ledger.Account, timingFailure *FailureTag, err error) {
	if globalSlot > payload.ValidUntil {
		return loc, nil, nil, syncerrors.ErrInvalidValidUntil
	}

	loc, ok := l.LocationOfAccount(payload.FeePayer)
	if !ok {
		return loc, nil, nil, ErrFeePayerNotFound
	}
	acc, ok = l.Get(loc)
	if !ok {
		return loc, nil, nil, ErrFeePayerNotFound
	}
	if signer != payload.FeePayer.PublicKey {
		return loc, nil, nil, syncerrors.ErrSignerNotFeePayer
	}
	if payload.FeePayer.TokenId != ledger.DefaultTokenId {
		return loc, nil, nil, syncerrors.ErrFeeTokenNotDefault
	}
	if acc.Permissions.Send == ledger.PermImpossible {
		return loc, nil, nil, ErrFeePayerSendNotPermitted
	}
	if acc.Balance < payload.Fee {
		return loc, nil, nil, ErrFeePayerInsufficientBalance
	}
	if acc.Nonce != payload.Nonce {
		return loc, nil, nil, ErrNonceMismatch
	}

	acc.Balance -= payload.Fee
	acc.Nonce++
	acc.ReceiptChainHash = UpdateReceiptChainHash(hasher, payload, acc.ReceiptChainHash)

	if !acc.CheckMinBalance(globalSlot) {
		tag := FailureSourceMinimumBalanceViolation
		timingFailure = &tag
	}
	l.Set(loc, acc)
	return loc, acc, timingFailure, nil
}

// ApplySignedCommand applies a payment or stake-delegation command (spec.md
// §4.3), grounded on blockchain/state_transition.go's TransitionDb pattern
// of a fee-then-body two-stage apply.
func ApplySignedCommand(
	l ledger.Ledger,
	cmd *SignedCommand,
	cc ConstraintConstants,
	globalSlot uint32,
	hasher LegacyHasher,
	verifier Verifier,
) (*TransactionApplied, error) {
	payload := cmd.Payload
	result := &TransactionApplied{
		PreApplyRoot: l.MerkleRoot(),
		Kind:         KindSignedCommand,
		SignedCmd:    &AppliedSignedCommand{Command: cmd},
		Status:       StatusApplied,
	}

	_, _, timingFailure, err := applyFeePayer(l, payload, cmd.Signer, globalSlot, hasher)
	if err != nil {
		return nil, err
	}
	if timingFailure != nil {
		result.Status = StatusFailed
		result.Failures = [][]FailureTag{{*timingFailure}}
		return result, nil
	}

	var (
		bodyFailures []FailureTag
		newAccounts  []ledger.AccountId
	)
	switch payload.Body {
	case BodyPayment:
		bodyFailures, newAccounts, err = applyPayment(l, payload, cc, globalSlot)
	case BodyStakeDelegation:
		bodyFailures, newAccounts, err = applyStakeDelegation(l, payload, globalSlot)
	}
	if err != nil {
		return nil, err
	}
	if len(bodyFailures) > 0 {
		result.Status = StatusFailed
		result.Failures = [][]FailureTag{bodyFailures}
		return result, nil
	}
	result.NewAccounts = newAccounts
	return result, nil
}

// applyPayment implements spec.md §4.3's payment body: locate source and
// receiver, check Send/Receive, debit/credit the amount, and — if the
// receiver account is freshly created — subtract the account-creation fee
// from the credited amount (spec.md §8 edge case).
func applyPayment(
	l ledger.Ledger,
	payload SignedCommandPayload,
	cc ConstraintConstants,
	globalSlot uint32,
) ([]FailureTag, []ledger.AccountId, error) {
	if payload.Source.Equal(payload.Receiver) {
		loc, ok := l.LocationOfAccount(payload.Source)
		if !ok {
			return []FailureTag{FailureSourceNotPresent}, nil, nil
		}
		acc, _ := l.Get(loc)
		if acc.Permissions.Send == ledger.PermImpossible {
			return []FailureTag{FailureUpdateNotPermittedBalance}, nil, nil
		}
		if acc.Permissions.Receive == ledger.PermImpossible {
			return []FailureTag{FailureUpdateNotPermittedBalance}, nil, nil
		}
		return nil, nil, nil
	}

	sourceLoc, ok := l.LocationOfAccount(payload.Source)
	if !ok {
		return []FailureTag{FailureSourceNotPresent}, nil, nil
	}
	source, _ := l.Get(sourceLoc)
	if source.Permissions.Send == ledger.PermImpossible {
		return []FailureTag{FailureUpdateNotPermittedBalance}, nil, nil
	}
	if source.Balance < payload.Amount {
		return []FailureTag{FailureSourceInsufficientBalance}, nil, nil
	}

	created, receiver, receiverLoc, err := l.GetOrCreate(payload.Receiver)
	if err != nil {
		return nil, nil, err
	}
	if receiver.Permissions.Receive == ledger.PermImpossible {
		return []FailureTag{FailureUpdateNotPermittedBalance}, nil, nil
	}

	credit := payload.Amount
	if created == ledger.Added {
		if credit < cc.AccountCreationFee {
			return []FailureTag{FailureAmountInsufficientToCreateAccount}, nil, nil
		}
		credit -= cc.AccountCreationFee
	}

	source.Balance -= payload.Amount
	if !source.CheckMinBalance(globalSlot) {
		return []FailureTag{FailureSourceMinimumBalanceViolation}, nil, nil
	}
	receiver.Balance += credit

	l.Set(sourceLoc, source)
	l.Set(receiverLoc, receiver)

	var newAccounts []ledger.AccountId
	if created == ledger.Added {
		newAccounts = append(newAccounts, payload.Receiver)
	}
	return nil, newAccounts, nil
}

// applyStakeDelegation implements spec.md §4.3's stake-delegation body:
// source must exist and permit SetDelegate; the new delegate account need
// only exist (its balance is untouched). A command naming the source as its
// own delegation target is block-malformed (spec.md §7 Configuration error),
// not a business-logic failure, since a well-formed block never proposes it.
func applyStakeDelegation(l ledger.Ledger, payload SignedCommandPayload, globalSlot uint32) ([]FailureTag, []ledger.AccountId, error) {
	if payload.Source.Equal(payload.Receiver) {
		return nil, nil, syncerrors.ErrDuplicateDelegationTarget
	}

	sourceLoc, ok := l.LocationOfAccount(payload.Source)
	if !ok {
		return []FailureTag{FailureSourceNotPresent}, nil, nil
	}
	source, _ := l.Get(sourceLoc)
	if source.Permissions.SetDelegate == ledger.PermImpossible {
		return []FailureTag{FailureUpdateNotPermittedDelegate}, nil, nil
	}

	newDelegateLoc, ok := l.LocationOfAccount(payload.Receiver)
	if !ok {
		return []FailureTag{FailureReceiverNotPresent}, nil, nil
	}
	newDelegate, _ := l.Get(newDelegateLoc)

	delegate := newDelegate.Id.PublicKey
	source.Delegate = &delegate
	if !source.CheckMinBalance(globalSlot) {
		return []FailureTag{FailureSourceMinimumBalanceViolation}, nil, nil
	}
	l.Set(sourceLoc, source)
	return nil, nil, nil
}
