package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mina-go/node/syncerrors"
)

// SparseLedger holds only the accounts and sibling hashes touched by a
// given transaction list (spec.md §4.2 "Sparse ledger"). A caller builds
// one as a witness: every account the transactions read or write is
// materialized with AddAccount, every untouched sibling needed to
// recompute ancestor hashes is recorded by hash only with AddSibling. The
// sync engine does not construct one; its C5 step hands blocks to the
// caller's apply hook.
//
// SparseLedger satisfies the same Ledger capability set as FullLedger, so
// package txn's apply logic is unaware which one it's mutating (spec.md
// §9 "Polymorphism over ledger shape").
type SparseLedger struct {
	mu       sync.RWMutex
	hasher   Hasher
	leaves   map[uint64]*Account
	index    map[AccountId]uint64
	siblings map[string]Field // known hash for an address not materialized here
	touched  map[string]bool
	cache    *nodeCache
	root     Field
}

// NewSparseLedger creates a witness ledger whose merkle_root must equal
// root once fully populated with the relevant accounts and siblings.
func NewSparseLedger(hasher Hasher, root Field) *SparseLedger {
	return &SparseLedger{
		hasher:   hasher,
		leaves:   make(map[uint64]*Account),
		index:    make(map[AccountId]uint64),
		siblings: make(map[string]Field),
		touched:  make(map[string]bool),
		cache:    newNodeCache(),
		root:     root,
	}
}

// AddAccount materializes a leaf the witness needs to read or write.
func (l *SparseLedger) AddAccount(loc Address, acc *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(loc, acc)
}

// AddSibling records the known hash of an address the witness does not
// need to materialize, only to combine against on the way to the root.
func (l *SparseLedger) AddSibling(addr Address, h Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.siblings[addr.key()] = h
}

func (l *SparseLedger) LocationOfAccount(id AccountId) (Address, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.index[id]
	if !ok {
		return Address{}, false
	}
	return addressOfIndex(idx), true
}

func (l *SparseLedger) Get(loc Address) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.leaves[loc.ToIndex()]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

func (l *SparseLedger) Set(loc Address, acc *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(loc, acc)
}

func (l *SparseLedger) setLocked(loc Address, acc *Account) {
	idx := loc.ToIndex()
	l.leaves[idx] = acc
	l.index[acc.Id] = idx
	addr := loc
	for {
		l.touched[addr.key()] = true
		delete(l.siblings, addr.key())
		l.cache.invalidate(addr)
		if addr.Depth() == 0 {
			return
		}
		addr = addr.Parent()
	}
}

func (l *SparseLedger) GetOrCreate(id AccountId) (CreateResult, *Account, Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx, ok := l.index[id]; ok {
		return Existed, l.leaves[idx].Clone(), addressOfIndex(idx), nil
	}
	return Existed, nil, Address{}, errors.Wrapf(syncerrors.ErrAccountNotFound,
		"sparse ledger has no witness for %s and cannot allocate a fresh leaf location", id.PublicKey)
}

func (l *SparseLedger) CreateNewAccount(id AccountId, acc *Account) error {
	return errors.New("sparse ledger: account creation requires a known leaf location; use AddAccount")
}

// MerkleRoot recomputes ancestor hashes along every touched path, falling
// back to the recorded sibling hash for anything not materialized, and to
// the canonical empty-subtree hash for anything neither touched nor
// recorded (spec.md §8 boundary behavior).
func (l *SparseLedger) MerkleRoot() Field {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.subtreeHash(RootAddress())
}

func (l *SparseLedger) subtreeHash(addr Address) Field {
	if !l.touched[addr.key()] {
		if h, ok := l.siblings[addr.key()]; ok {
			return h
		}
		return l.hasher.EmptyHashAt(LedgerDepth - addr.Depth())
	}
	if addr.Depth() == LedgerDepth {
		return l.hasher.HashAccount(l.leaves[addr.ToIndex()])
	}
	if h, ok := l.cache.get(addr); ok {
		return h
	}
	left := l.subtreeHash(addr.Child(Left))
	right := l.subtreeHash(addr.Child(Right))
	h := l.hasher.HashInternal(left, right, LedgerDepth-addr.Depth())
	l.cache.set(addr, h)
	return h
}
