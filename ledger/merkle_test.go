package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(b byte) PublicKey {
	var k PublicKey
	k[0] = b
	return k
}

func TestFullLedgerGetOrCreate(t *testing.T) {
	l := NewFullLedger(testHasher{})

	id := AccountId{PublicKey: pk(1), TokenId: DefaultTokenId}
	res, acc, loc, err := l.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, Added, res)
	assert.Equal(t, id, acc.Id)

	res2, acc2, loc2, err := l.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, Existed, res2)
	assert.True(t, loc.Equal(loc2))
	assert.Equal(t, id, acc2.Id)
}

func TestFullLedgerCreateNewAccountRejectsDuplicate(t *testing.T) {
	l := NewFullLedger(testHasher{})
	id := AccountId{PublicKey: pk(2), TokenId: DefaultTokenId}

	require.NoError(t, l.CreateNewAccount(id, NewAccount(id)))
	err := l.CreateNewAccount(id, NewAccount(id))
	assert.Error(t, err)
}

// TestMerkleRootIdenticalForIdenticalLeafMultiset asserts spec.md §4.2's
// invariant: two ledgers built from the same leaf multiset in different
// insertion order produce the same root.
func TestMerkleRootIdenticalForIdenticalLeafMultiset(t *testing.T) {
	ids := []AccountId{
		{PublicKey: pk(1), TokenId: DefaultTokenId},
		{PublicKey: pk(2), TokenId: DefaultTokenId},
		{PublicKey: pk(3), TokenId: DefaultTokenId},
	}

	l1 := NewFullLedger(testHasher{})
	for _, id := range ids {
		_, _, _, err := l1.GetOrCreate(id)
		require.NoError(t, err)
	}

	l2 := NewFullLedger(testHasher{})
	for i := len(ids) - 1; i >= 0; i-- {
		_, _, _, err := l2.GetOrCreate(ids[i])
		require.NoError(t, err)
	}

	assert.Equal(t, l1.MerkleRoot(), l2.MerkleRoot())
}

func TestMerkleRootChangesOnMutation(t *testing.T) {
	l := NewFullLedger(testHasher{})
	id := AccountId{PublicKey: pk(4), TokenId: DefaultTokenId}
	_, acc, loc, err := l.GetOrCreate(id)
	require.NoError(t, err)

	before := l.MerkleRoot()
	acc.Balance = 100
	l.Set(loc, acc)
	after := l.MerkleRoot()

	assert.NotEqual(t, before, after)
}

func TestEmptyLedgerRootIsCanonicalEmptyHash(t *testing.T) {
	l := NewFullLedger(testHasher{})
	h := testHasher{}
	assert.Equal(t, h.EmptyHashAt(LedgerDepth), l.MerkleRoot())
}

func TestSparseLedgerRecombinesToKnownSibling(t *testing.T) {
	h := testHasher{}
	id := AccountId{PublicKey: pk(5), TokenId: DefaultTokenId}

	full := NewFullLedger(h)
	_, _, loc, err := full.GetOrCreate(id)
	require.NoError(t, err)
	fullRoot := full.MerkleRoot()

	sparse := NewSparseLedger(h, fullRoot)
	acc, _ := full.Get(loc)
	sparse.AddAccount(loc, acc)

	// Record every sibling along the path up to the root so the sparse
	// ledger can recombine to the same root without the rest of the tree.
	addr := loc
	for addr.Depth() > 0 {
		parent := addr.Parent()
		var siblingAddr Address
		if addr.LastDirection() == Left {
			siblingAddr = parent.Child(Right)
		} else {
			siblingAddr = parent.Child(Left)
		}
		sparse.AddSibling(siblingAddr, full.subtreeHash(siblingAddr))
		addr = parent
	}

	assert.Equal(t, fullRoot, sparse.MerkleRoot())
}
