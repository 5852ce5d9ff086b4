package txn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// TestApplyCoinbasePlain covers spec.md S2: a bare coinbase with no
// attached fee transfer credits the block producer the full reward, less
// the account-creation fee since the producer's account is new.
func TestApplyCoinbasePlain(t *testing.T) {
	l := newTestLedger()
	producer := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}

	cb := &Coinbase{Receiver: producer, Amount: 720}
	result, err := ApplyCoinbase(l, cb, ConstraintConstants{AccountCreationFee: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)

	acc, _ := l.Get(mustLoc(t, l, producer))
	assert.Equal(t, uint64(719), acc.Balance)
}

// TestApplyCoinbaseWithFeeTransfer covers spec.md S3: a coinbase with an
// attached fee transfer splits the reward between the producer and the
// third party.
func TestApplyCoinbaseWithFeeTransfer(t *testing.T) {
	l := newTestLedger()
	producer := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}
	thirdParty := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	cb := &Coinbase{
		Receiver: producer,
		Amount:   720,
		FeeTransfer: &CoinbaseFeeTransfer{Receiver: thirdParty, Fee: 20},
	}
	result, err := ApplyCoinbase(l, cb, ConstraintConstants{AccountCreationFee: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)

	producerAcc, _ := l.Get(mustLoc(t, l, producer))
	thirdPartyAcc, _ := l.Get(mustLoc(t, l, thirdParty))
	assert.Equal(t, uint64(700-1), producerAcc.Balance)
	assert.Equal(t, uint64(20-1), thirdPartyAcc.Balance)
}

// TestApplyCoinbaseBurnsOnReceiveDenied covers spec.md §8 scenario S3
// verbatim: coinbase with fee-transfer, receiver X lacks Receive permission.
// R is credited normally, X is unchanged, burned_tokens=200, and the
// transaction is reported Failed([[UpdateNotPermittedBalance]]).
func TestApplyCoinbaseBurnsOnReceiveDenied(t *testing.T) {
	l := newTestLedger()
	r := seedAccount(l, pk(1), 0)
	x := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	_, xAcc, xLoc, err := l.GetOrCreate(x)
	require.NoError(t, err)
	xAcc.Permissions.Receive = ledger.PermImpossible
	l.Set(xLoc, xAcc)

	cb := &Coinbase{
		Receiver:    r,
		Amount:      1000,
		FeeTransfer: &CoinbaseFeeTransfer{Receiver: x, Fee: 200},
	}
	result, err := ApplyCoinbase(l, cb, ConstraintConstants{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, [][]FailureTag{{FailureUpdateNotPermittedBalance}}, result.Failures)
	assert.Equal(t, uint64(200), result.BurnedTokens)

	rAcc, _ := l.Get(mustLoc(t, l, r))
	assert.Equal(t, uint64(800), rAcc.Balance, "R is credited normally")

	xAccAfter, _ := l.Get(mustLoc(t, l, x))
	assert.Equal(t, uint64(0), xAccAfter.Balance, "X is unchanged")
}

func TestApplyCoinbaseRejectsFeeExceedingAmount(t *testing.T) {
	l := newTestLedger()
	producer := ledger.AccountId{PublicKey: pk(1), TokenId: ledger.DefaultTokenId}
	thirdParty := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	cb := &Coinbase{
		Receiver: producer,
		Amount:   10,
		FeeTransfer: &CoinbaseFeeTransfer{Receiver: thirdParty, Fee: 20},
	}
	_, err := ApplyCoinbase(l, cb, ConstraintConstants{})
	assert.True(t, errors.Is(err, syncerrors.ErrFeeExceedsCoinbaseAmount))
}
