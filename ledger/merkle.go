package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mina-go/node/syncerrors"
)

// CreateResult reports whether GetOrCreate allocated a fresh leaf or found
// an existing one (spec.md §3 "(Added|Existed, account, location)").
type CreateResult int

const (
	Existed CreateResult = iota
	Added
)

// Ledger is the capability set the transaction logic (package txn) and the
// sync engine (package sync) are parametric over (spec.md §9
// "Polymorphism over ledger shape"): both the full in-memory ledger and the
// sparse witness ledger in this package satisfy it, and any third
// implementation would work too without either caller changing.
type Ledger interface {
	LocationOfAccount(id AccountId) (Address, bool)
	Get(loc Address) (*Account, bool)
	Set(loc Address, acc *Account)
	GetOrCreate(id AccountId) (CreateResult, *Account, Address, error)
	CreateNewAccount(id AccountId, acc *Account) error
	MerkleRoot() Field
}

// FullLedger is the complete in-memory Merkle account ledger (spec.md
// §4.2 "Full in-memory ledger"). It is the destination the sync engine
// populates during C3/C4 and the ledger every block is applied against
// during C5.
type FullLedger struct {
	mu      sync.RWMutex
	hasher  Hasher
	leaves  map[uint64]*Account
	index   map[AccountId]uint64
	touched map[string]bool // ancestor address keys with ≥1 leaf beneath them
	cache   *nodeCache
	leafBytes *leafCache
	nextFree  uint64
}

// NewFullLedger constructs an empty ledger backed by the given Hasher.
func NewFullLedger(hasher Hasher) *FullLedger {
	return &FullLedger{
		hasher:    hasher,
		leaves:    make(map[uint64]*Account),
		index:     make(map[AccountId]uint64),
		touched:   make(map[string]bool),
		cache:     newNodeCache(),
		leafBytes: newLeafCache(),
	}
}

func (l *FullLedger) LocationOfAccount(id AccountId) (Address, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.index[id]
	if !ok {
		return Address{}, false
	}
	return addressOfIndex(idx), true
}

func (l *FullLedger) Get(loc Address) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.leaves[loc.ToIndex()]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

func (l *FullLedger) Set(loc Address, acc *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(loc, acc)
}

func (l *FullLedger) setLocked(loc Address, acc *Account) {
	idx := loc.ToIndex()
	l.leaves[idx] = acc
	l.index[acc.Id] = idx
	l.leafBytes.invalidate(idx)
	l.markTouchedAndDirty(loc)
}

// markTouchedAndDirty records every ancestor of loc (including loc itself)
// as containing a leaf, and invalidates their cached hash so the next
// MerkleRoot recomputes exactly this path (spec.md §4.2 "a set marks
// ancestors dirty; merkle_root recomputes only dirty nodes").
func (l *FullLedger) markTouchedAndDirty(loc Address) {
	addr := loc
	for {
		l.touched[addr.key()] = true
		l.cache.invalidate(addr)
		if addr.Depth() == 0 {
			return
		}
		addr = addr.Parent()
	}
}

func (l *FullLedger) GetOrCreate(id AccountId) (CreateResult, *Account, Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, ok := l.index[id]; ok {
		loc := addressOfIndex(idx)
		return Existed, l.leaves[idx].Clone(), loc, nil
	}

	loc, err := l.allocateLocked()
	if err != nil {
		return Existed, nil, Address{}, err
	}
	acc := NewAccount(id)
	l.setLocked(loc, acc)
	return Added, acc.Clone(), loc, nil
}

func (l *FullLedger) CreateNewAccount(id AccountId, acc *Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[id]; ok {
		return errors.Wrap(syncerrors.ErrAccountAlreadyExists, id.PublicKey.String())
	}
	loc, err := l.allocateLocked()
	if err != nil {
		return err
	}
	cp := acc.Clone()
	cp.Id = id
	l.setLocked(loc, cp)
	return nil
}

func (l *FullLedger) allocateLocked() (Address, error) {
	maxLeaves := uint64(1) << uint(LedgerDepth)
	for l.nextFree < maxLeaves {
		if _, occupied := l.leaves[l.nextFree]; !occupied {
			addr := addressOfIndex(l.nextFree)
			l.nextFree++
			return addr, nil
		}
		l.nextFree++
	}
	return Address{}, syncerrors.ErrLedgerFull
}

// MerkleRoot returns the Poseidon-folded root of the leaves (spec.md §4.2).
func (l *FullLedger) MerkleRoot() Field {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.subtreeHash(RootAddress())
}

// subtreeHash computes (and caches) the hash of the subtree rooted at addr.
// Subtrees with no touched leaves short-circuit to the canonical empty-
// subtree hash without recursing (spec.md §8 boundary behavior), which also
// keeps this bounded by the number of touched leaves rather than 2^D.
func (l *FullLedger) subtreeHash(addr Address) Field {
	if !l.touched[addr.key()] {
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

// Stats reports ledger occupancy for the metrics package.
func (l *FullLedger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{
		Leaves:       len(l.leaves),
		NodeCacheLen: l.cache.lru.Len(),
	}
}

// ForEachAccount calls f for every leaf, in no particular order.
func (l *FullLedger) ForEachAccount(f func(Address, *Account)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for idx, acc := range l.leaves {
		f(addressOfIndex(idx), acc)
	}
}
