package txn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

func TestApplyFeeTransferTwoReceivers(t *testing.T) {
	l := newTestLedger()
	a := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}
	b := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	ft := &FeeTransfer{
		Kind:  FeeTransferTwo,
		First: FeeTransferSingle{Receiver: a, Fee: 5},
		Second: FeeTransferSingle{Receiver: b, Fee: 7},
	}
	result, err := ApplyFeeTransfer(l, ft, ConstraintConstants{AccountCreationFee: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)
	assert.ElementsMatch(t, []ledger.AccountId{a, b}, result.NewAccounts)

	accA, _ := l.Get(mustLoc(t, l, a))
	accB, _ := l.Get(mustLoc(t, l, b))
	assert.Equal(t, uint64(4), accA.Balance)
	assert.Equal(t, uint64(6), accB.Balance)
}

func TestApplyFeeTransferBurnsWhenBelowCreationFee(t *testing.T) {
	l := newTestLedger()
	a := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}

	ft := &FeeTransfer{Kind: FeeTransferOne, First: FeeTransferSingle{Receiver: a, Fee: 1}}
	result, err := ApplyFeeTransfer(l, ft, ConstraintConstants{AccountCreationFee: 5})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.BurnedTokens)

	acc, _ := l.Get(mustLoc(t, l, a))
	assert.Equal(t, uint64(0), acc.Balance)
}

// TestApplyFeeTransferBurnsOnReceiveDenied covers spec.md §4.3: a receiver
// whose permissions deny Receive is never credited, the fee is burned
// instead, and the other receiver in a two-receiver transfer is still
// credited normally.
func TestApplyFeeTransferBurnsOnReceiveDenied(t *testing.T) {
	l := newTestLedger()
	a := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}
	x := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	_, acc, loc, err := l.GetOrCreate(x)
	require.NoError(t, err)
	acc.Permissions.Receive = ledger.PermImpossible
	l.Set(loc, acc)

	ft := &FeeTransfer{
		Kind:   FeeTransferTwo,
		First:  FeeTransferSingle{Receiver: a, Fee: 5},
		Second: FeeTransferSingle{Receiver: x, Fee: 7},
	}
	result, err := ApplyFeeTransfer(l, ft, ConstraintConstants{AccountCreationFee: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, [][]FailureTag{{FailureUpdateNotPermittedBalance}}, result.Failures)
	assert.Equal(t, uint64(7), result.BurnedTokens)

	accA, _ := l.Get(mustLoc(t, l, a))
	assert.Equal(t, uint64(4), accA.Balance, "the other receiver is still credited normally")

	xAcc, _ := l.Get(mustLoc(t, l, x))
	assert.Equal(t, uint64(0), xAcc.Balance, "the denied receiver is unchanged")
}

func TestApplyFeeTransferRejectsIncompatibleTokens(t *testing.T) {
	l := newTestLedger()
	a := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}
	b := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.TokenId(2)}

	ft := &FeeTransfer{
		Kind:   FeeTransferTwo,
		First:  FeeTransferSingle{Receiver: a, Fee: 5},
		Second: FeeTransferSingle{Receiver: b, Fee: 5},
	}
	_, err := ApplyFeeTransfer(l, ft, ConstraintConstants{})
	assert.True(t, errors.Is(err, syncerrors.ErrIncompatibleFeeTransferTokens))
}
