package txn

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/syncerrors"
)

// fnvHasher is a deterministic SHA-256-based Hasher/LegacyHasher used only
// to exercise apply logic in these tests; it makes no security claim.
type fnvHasher struct{}

func (fnvHasher) HashAccount(a *ledger.Account) ledger.Field {
	return sha256.Sum256([]byte(a.Id.PublicKey.String()))
}

func (fnvHasher) HashInternal(l, r ledger.Field, depth int) ledger.Field {
	buf := append(append([]byte{byte(depth)}, l[:]...), r[:]...)
	return sha256.Sum256(buf)
}

func (fnvHasher) EmptyHashAt(depth int) ledger.Field {
	return sha256.Sum256([]byte{byte(depth)})
}

func (fnvHasher) HashReceiptChainUpdate(payload SignedCommandPayload, prev ledger.Field) ledger.Field {
	buf := append([]byte("MinaReceiptUC"), prev[:]...)
	buf = append(buf, byte(payload.Nonce))
	return sha256.Sum256(buf)
}

type stubVerifier struct{}

func (stubVerifier) VerifySignature(ledger.PublicKey, Signature, ledger.Field) bool { return true }
func (stubVerifier) VerifyProof([]byte, ledger.Field, ledger.Field) bool            { return true }

func pk(b byte) ledger.PublicKey {
	var k ledger.PublicKey
	k[0] = b
	return k
}

func newTestLedger() *ledger.FullLedger {
	return ledger.NewFullLedger(fnvHasher{})
}

func seedAccount(l *ledger.FullLedger, pub ledger.PublicKey, balance uint64) ledger.AccountId {
	id := ledger.AccountId{PublicKey: pub, TokenId: ledger.DefaultTokenId}
	_, acc, loc, err := l.GetOrCreate(id)
	if err != nil {
		panic(err)
	}
	acc.Balance = balance
	l.Set(loc, acc)
	return id
}

func TestApplyPaymentSuccess(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 1000)
	receiver := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	cmd := &SignedCommand{
		Payload: SignedCommandPayload{
			FeePayer:   sender,
			Fee:        10,
			Nonce:      0,
			ValidUntil: 100,
			Body:       BodyPayment,
			Source:     sender,
			Receiver:   receiver,
			Amount:     100,
		},
		Signer: pk(1),
	}

	result, err := ApplySignedCommand(l, cmd, ConstraintConstants{AccountCreationFee: 1}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)

	senderLoc, _ := l.LocationOfAccount(sender)
	senderAcc, _ := l.Get(senderLoc)
	assert.Equal(t, uint64(1000-10-100), senderAcc.Balance)
	assert.Equal(t, uint32(1), senderAcc.Nonce)

	recvLoc, _ := l.LocationOfAccount(receiver)
	recvAcc, _ := l.Get(recvLoc)
	assert.Equal(t, uint64(100-1), recvAcc.Balance)
}

func TestApplyPaymentFailsInsufficientBalanceFeeStillCharged(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 50)
	receiver := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	cmd := &SignedCommand{
		Payload: SignedCommandPayload{
			FeePayer:   sender,
			Fee:        10,
			Nonce:      0,
			ValidUntil: 100,
			Body:       BodyPayment,
			Source:     sender,
			Receiver:   receiver,
			Amount:     1000,
		},
		Signer: pk(1),
	}

	result, err := ApplySignedCommand(l, cmd, ConstraintConstants{AccountCreationFee: 1}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, [][]FailureTag{{FailureSourceInsufficientBalance}}, result.Failures)

	senderLoc, _ := l.LocationOfAccount(sender)
	senderAcc, _ := l.Get(senderLoc)
	assert.Equal(t, uint64(50-10), senderAcc.Balance, "fee is charged even though the payment body fails")
	assert.Equal(t, uint32(1), senderAcc.Nonce)
}

func TestApplyFatalOnSignerMismatch(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 1000)
	cmd := &SignedCommand{
		Payload: SignedCommandPayload{FeePayer: sender, Fee: 10, ValidUntil: 100, Body: BodyPayment, Source: sender, Receiver: sender},
		Signer:  pk(9),
	}
	_, err := ApplySignedCommand(l, cmd, ConstraintConstants{}, 0, fnvHasher{}, stubVerifier{})
	assert.True(t, errors.Is(err, syncerrors.ErrSignerNotFeePayer))
}

func TestApplyFatalOnValidUntilExceeded(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 1000)
	cmd := &SignedCommand{
		Payload: SignedCommandPayload{FeePayer: sender, Fee: 10, ValidUntil: 5, Body: BodyPayment, Source: sender, Receiver: sender},
		Signer:  pk(1),
	}
	_, err := ApplySignedCommand(l, cmd, ConstraintConstants{}, 10, fnvHasher{}, stubVerifier{})
	assert.True(t, errors.Is(err, syncerrors.ErrInvalidValidUntil))
}

func TestApplyStakeDelegation(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 1000)
	delegateTarget := seedAccount(l, pk(2), 0)

	cmd := &SignedCommand{
		Payload: SignedCommandPayload{
			FeePayer: sender, Fee: 10, Body: BodyStakeDelegation,
			Source: sender, Receiver: delegateTarget, ValidUntil: 100,
		},
		Signer: pk(1),
	}
	result, err := ApplySignedCommand(l, cmd, ConstraintConstants{}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)

	senderLoc, _ := l.LocationOfAccount(sender)
	senderAcc, _ := l.Get(senderLoc)
	require.NotNil(t, senderAcc.Delegate)
	assert.Equal(t, pk(2), *senderAcc.Delegate)
}

func TestReceiptChainHashAdvancesOnEveryFeePayerApply(t *testing.T) {
	l := newTestLedger()
	sender := seedAccount(l, pk(1), 1000)
	before, _ := l.Get(mustLoc(t, l, sender))
	cmd := &SignedCommand{
		Payload: SignedCommandPayload{FeePayer: sender, Fee: 10, Body: BodyPayment, Source: sender, Receiver: sender, ValidUntil: 100},
		Signer:  pk(1),
	}
	_, err := ApplySignedCommand(l, cmd, ConstraintConstants{}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	after, _ := l.Get(mustLoc(t, l, sender))
	assert.NotEqual(t, before.ReceiptChainHash, after.ReceiptChainHash)
}

func mustLoc(t *testing.T, l *ledger.FullLedger, id ledger.AccountId) ledger.Address {
	t.Helper()
	loc, ok := l.LocationOfAccount(id)
	require.True(t, ok)
	return loc
}
