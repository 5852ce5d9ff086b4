package ledger

import (
	"fmt"
	"math/big"
)

// PublicKey is an opaque curve point; signature verification is out of
// scope (spec.md §1) and is consumed only through the injected Verifier
// capability in package txn.
type PublicKey [32]byte

func (k PublicKey) String() string {
	return fmt.Sprintf("%x", k[:8])
}

// TokenId identifies a token; token 1 is the default/native token.
type TokenId uint64

// DefaultTokenId is the native MINA token.
const DefaultTokenId TokenId = 1

// AccountId is (public_key, token_id); equality is structural (spec.md §3).
type AccountId struct {
	PublicKey PublicKey
	TokenId   TokenId
}

func (id AccountId) Equal(other AccountId) bool {
	return id.PublicKey == other.PublicKey && id.TokenId == other.TokenId
}

// Permission gates a single field or action of an account (spec.md
// GLOSSARY "Permission").
type Permission uint8

const (
	PermNone Permission = iota
	PermSigner
	PermProof
	PermBoth   // both a signature and a proof are required
	PermEither // either a signature or a proof suffices
	PermImpossible
)

// Permissions is the full per-field access control set for an account.
type Permissions struct {
	Send             Permission
	Receive          Permission
	SetDelegate      Permission
	SetPermissions   Permission
	EditState        Permission
	SetVerificationKey Permission
	SetZkappURI      Permission
	EditSequenceState Permission
	SetTokenSymbol   Permission
	IncrementNonce   Permission
	SetVotingFor     Permission
	SetTiming        Permission
}

// DefaultPermissions is granted to freshly created accounts: anyone who can
// sign for the account may send, receive, and change its settings.
func DefaultPermissions() Permissions {
	return Permissions{
		Send:               PermSigner,
		Receive:            PermNone,
		SetDelegate:        PermSigner,
		SetPermissions:     PermSigner,
		EditState:          PermSigner,
		SetVerificationKey: PermSigner,
		SetZkappURI:        PermSigner,
		EditSequenceState:  PermSigner,
		SetTokenSymbol:     PermSigner,
		IncrementNonce:     PermSigner,
		SetVotingFor:       PermSigner,
		SetTiming:          PermSigner,
	}
}

// Satisfied reports whether an authorization of the given strength (from a
// Signature, a Proof, or NoneGiven control) clears this permission, per
// spec.md §4.3's zkApp authorization-kind check.
func (p Permission) Satisfied(haveSignature, haveProof bool) bool {
	switch p {
	case PermNone:
		return true
	case PermSigner:
		return haveSignature
	case PermProof:
		return haveProof
	case PermBoth:
		return haveSignature && haveProof
	case PermEither:
		return haveSignature || haveProof
	case PermImpossible:
		return false
	default:
		return false
	}
}

// TimingKind distinguishes untimed from vesting accounts (spec.md §3).
type TimingKind int

const (
	Untimed TimingKind = iota
	Timed
)

// Timing is the vesting schedule attached to an account (spec.md §3,
// GLOSSARY "Timing").
type Timing struct {
	Kind                 TimingKind
	InitialMinimumBalance *big.Int
	CliffTime            uint32
	CliffAmount          *big.Int
	VestingPeriod        uint32
	VestingIncrement     *big.Int
}

// MinBalanceAt computes the minimum balance a timed account must retain at
// the given global slot (spec.md §3 invariant "balance ≥ min_balance_at").
//
// At globalSlot == CliffTime with VestingPeriod == 0, funds unlock
// immediately (spec.md §8 boundary behavior): that case returns zero
// before the per-period division below, which never divides by a zero
// VestingPeriod.
func (t Timing) MinBalanceAt(globalSlot uint32) *big.Int {
	if t.Kind == Untimed {
		return new(big.Int)
	}
	if globalSlot < t.CliffTime {
		return new(big.Int).Set(t.InitialMinimumBalance)
	}
	if t.VestingPeriod == 0 {
		return new(big.Int)
	}
	minBalance := new(big.Int).Sub(t.InitialMinimumBalance, t.CliffAmount)
	if minBalance.Sign() < 0 {
		minBalance.SetInt64(0)
	}
	if minBalance.Sign() == 0 {
		return minBalance
	}

	slotsSinceCliff := globalSlot - t.CliffTime
	numPeriods := new(big.Int).SetUint64(uint64(slotsSinceCliff) / uint64(t.VestingPeriod))

	vested := new(big.Int).Mul(numPeriods, t.VestingIncrement)
	// Overflow guard: the original implementation saturates to u64::MAX
	// here (spec.md §9 Open Question); mirrored with big.Int's native
	// arbitrary precision, which never overflows, so no saturation branch
	// is needed — this note records the parity decision, not new behavior.
	if vested.Cmp(minBalance) >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(minBalance, vested)
}

// ZkAppState is the optional zkApp-specific account state (spec.md §3).
type ZkAppState struct {
	AppState        [8]Field
	VerificationKey *Field
	SequenceState   [5]Field
	ProvedState     bool
	ZkappURI        string
	TokenSymbol     string
	VotingFor       Field
}

// Account is the leaf value of the Merkle ledger (spec.md §3).
type Account struct {
	Id                AccountId
	Balance           uint64
	Nonce             uint32
	Delegate          *PublicKey
	ReceiptChainHash  Field
	Timing            Timing
	Permissions       Permissions
	ZkApp             *ZkAppState
}

// NewAccount returns a freshly created account with default permissions,
// zero balance, and no timing.
func NewAccount(id AccountId) *Account {
	return &Account{
		Id:          id,
		Timing:      Timing{Kind: Untimed},
		Permissions: DefaultPermissions(),
	}
}

// Clone returns a deep copy, used when staging a speculative mutation
// (e.g. a sparse ledger witness) that must not alias the original.
func (a *Account) Clone() *Account {
	cp := *a
	if a.Delegate != nil {
		d := *a.Delegate
		cp.Delegate = &d
	}
	if a.Timing.InitialMinimumBalance != nil {
		cp.Timing.InitialMinimumBalance = new(big.Int).Set(a.Timing.InitialMinimumBalance)
	}
	if a.Timing.CliffAmount != nil {
		cp.Timing.CliffAmount = new(big.Int).Set(a.Timing.CliffAmount)
	}
	if a.Timing.VestingIncrement != nil {
		cp.Timing.VestingIncrement = new(big.Int).Set(a.Timing.VestingIncrement)
	}
	if a.ZkApp != nil {
		z := *a.ZkApp
		if a.ZkApp.VerificationKey != nil {
			vk := *a.ZkApp.VerificationKey
			z.VerificationKey = &vk
		}
		cp.ZkApp = &z
	}
	return &cp
}

// CheckMinBalance is a convenience wrapper checked by callers before
// debiting an account (spec.md §3 invariant).
func (a *Account) CheckMinBalance(globalSlot uint32) bool {
	return a.Balance >= a.Timing.MinBalanceAt(globalSlot).Uint64()
}
