package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mina-go/node/ledger"
)

func TestApplyZkAppCommandCreditsAndUpdatesState(t *testing.T) {
	l := newTestLedger()
	feePayer := seedAccount(l, pk(1), 1000)
	target := ledger.AccountId{PublicKey: pk(2), TokenId: ledger.DefaultTokenId}

	var newState ledger.Field
	newState[0] = 0x42

	cmd := &ZkAppCommand{
		FeePayer: ZkAppFeePayer{FeePayer: feePayer, Fee: 10, ValidUntil: 100},
		AccountUpdates: []*AccountUpdate{
			{
				Body: AccountUpdateBody{
					AccountId:     target,
					BalanceChange: 500,
					Update:        Update{AppState: [8]*ledger.Field{&newState}},
				},
			},
		},
	}

	result, err := ApplyZkAppCommand(l, cmd, ConstraintConstants{}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, result.Status)
	assert.Equal(t, []ledger.AccountId{target}, result.NewAccounts)

	acc, _ := l.Get(mustLoc(t, l, target))
	assert.Equal(t, uint64(500), acc.Balance)
	require.NotNil(t, acc.ZkApp)
	assert.Equal(t, newState, acc.ZkApp.AppState[0])
}

func TestApplyZkAppCommandChildFailureRollsBackParent(t *testing.T) {
	l := newTestLedger()
	feePayer := seedAccount(l, pk(1), 1000)
	parent := seedAccount(l, pk(2), 100)
	child := ledger.AccountId{PublicKey: pk(3), TokenId: ledger.DefaultTokenId}

	cmd := &ZkAppCommand{
		FeePayer: ZkAppFeePayer{FeePayer: feePayer, Fee: 10, ValidUntil: 100},
		AccountUpdates: []*AccountUpdate{
			{
				Body: AccountUpdateBody{AccountId: parent, BalanceChange: 50},
				Children: []*AccountUpdate{
					{Body: AccountUpdateBody{AccountId: child, BalanceChange: -999}},
				},
			},
		},
	}

	result, err := ApplyZkAppCommand(l, cmd, ConstraintConstants{}, 0, fnvHasher{}, stubVerifier{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	parentAcc, _ := l.Get(mustLoc(t, l, parent))
	assert.Equal(t, uint64(100), parentAcc.Balance, "parent balance change rolls back when a child fails")

	feePayerAcc, _ := l.Get(mustLoc(t, l, feePayer))
	assert.Equal(t, uint64(990), feePayerAcc.Balance, "fee payer's fee persists even though the forest failed")
}
