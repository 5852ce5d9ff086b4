package ledger

import "fmt"

// Field is an opaque field element. Its concrete representation (a
// Pasta/Pallas field element in production Mina) is a cryptographic
// primitive and is deliberately out of scope per spec.md §1; this repo
// treats it as a fixed-width byte string produced and combined only
// through the injected Hasher.
type Field [32]byte

func (f Field) String() string {
	return fmt.Sprintf("%x", f[:])
}

// IsZero reports whether f is the all-zero field element, used as the
// sentinel "no value yet" field throughout the sync state machine.
func (f Field) IsZero() bool {
	return f == Field{}
}

// LedgerHash identifies a ledger snapshot (spec.md §3).
type LedgerHash = Field

// Hasher is the injected cryptographic capability the ledger and
// transaction logic consume as a black-box predicate (spec.md §1, §9
// "Global mutable singletons"): no package in this repo calls a concrete
// Poseidon/legacy-hash implementation directly, they all take one of these
// through a constructor parameter.
type Hasher interface {
	// HashAccount returns the leaf hash of a single account.
	HashAccount(a *Account) Field

	// HashInternal combines two child hashes into their parent's hash.
	HashInternal(left, right Field, depth int) Field

	// EmptyHashAt returns the canonical hash of an empty subtree rooted at
	// the given depth (0 = leaf level). The ledgers in this package use it
	// for subtrees that hold no leaves; the sync engine's C3 descent does
	// not consult it and queries every child it is handed, empty or not.
	EmptyHashAt(depth int) Field
}
