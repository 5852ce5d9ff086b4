package ledger

import (
	"crypto/sha256"
	"encoding/binary"
)

// testHasher is a toy Hasher for unit tests. It is not cryptographically
// meaningful (real Poseidon hashing is out of scope, spec.md §1); it only
// needs to be a deterministic, depth-aware combining function so the tests
// can assert structural properties of the Merkle ledger.
type testHasher struct{}

func (testHasher) HashAccount(a *Account) Field {
	if a == nil {
		return Field{}
	}
	h := sha256.New()
	h.Write(a.Id.PublicKey[:])
	var tokBuf [8]byte
	binary.BigEndian.PutUint64(tokBuf[:], uint64(a.Id.TokenId))
	h.Write(tokBuf[:])
	var balBuf [8]byte
	binary.BigEndian.PutUint64(balBuf[:], a.Balance)
	h.Write(balBuf[:])
	var nonceBuf [4]byte
	binary.BigEndian.PutUint32(nonceBuf[:], a.Nonce)
	h.Write(nonceBuf[:])
	var out Field
	copy(out[:], h.Sum(nil))
	return out
}

func (testHasher) HashInternal(left, right Field, depth int) Field {
	h := sha256.New()
	h.Write([]byte{byte(depth)})
	h.Write(left[:])
	h.Write(right[:])
	var out Field
	copy(out[:], h.Sum(nil))
	return out
}

func (testHasher) EmptyHashAt(depth int) Field {
	h := sha256.New()
	h.Write([]byte("empty"))
	h.Write([]byte{byte(depth)})
	var out Field
	copy(out[:], h.Sum(nil))
	return out
}
