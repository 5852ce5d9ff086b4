// Package txn implements transaction application semantics: signed
// commands (payment, stake delegation), fee transfers, coinbase, and zkApp
// commands, applied against any ledger.Ledger (spec.md §4.3).
package txn

import (
	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/log"
)

var logger = log.NewModuleLogger(log.Transaction)

// Memo is the 34-byte user memo attached to a signed command (spec.md
// S1 fixture).
type Memo [34]byte

// Signature is an opaque signature; verification is injected (spec.md §1).
type Signature [64]byte

// CommandBody distinguishes payment from stake-delegation signed commands.
type CommandBody int

const (
	BodyPayment CommandBody = iota
	BodyStakeDelegation
)

// SignedCommandPayload is the part of a signed command that is hashed into
// the fee payer's receipt chain (spec.md §4.3 step 2).
type SignedCommandPayload struct {
	FeePayer  ledger.AccountId
	Fee       uint64
	Nonce     uint32
	ValidUntil uint32
	Memo      Memo

	Body     CommandBody
	Source   ledger.AccountId // sender for Payment, delegator for StakeDelegation
	Receiver ledger.AccountId // receiver for Payment, new delegate (as pubkey) for StakeDelegation
	Amount   uint64           // only meaningful for Payment
}

// SignedCommand is a payment or stake-delegation command plus its
// signature over the payload (spec.md §4.3).
type SignedCommand struct {
	Payload   SignedCommandPayload
	Signer    ledger.PublicKey
	Signature Signature
}

// FeeTransferSingle credits one receiver out of a coinbase or a block's
// aggregate transaction fees (spec.md GLOSSARY "Fee transfer").
type FeeTransferSingle struct {
	Receiver ledger.AccountId
	Fee      uint64
}

// FeeTransferKind distinguishes a one-receiver from a two-receiver fee
// transfer (spec.md §4.3).
type FeeTransferKind int

const (
	FeeTransferOne FeeTransferKind = iota
	FeeTransferTwo
)

// FeeTransfer is the coinbase-adjacent transaction crediting block
// producers with transaction fees; it carries no signature.
type FeeTransfer struct {
	Kind    FeeTransferKind
	First   FeeTransferSingle
	Second  FeeTransferSingle // only meaningful when Kind == FeeTransferTwo
}

// CoinbaseFeeTransfer is the optional single attached to a Coinbase
// redirecting part of the block reward to a third party (spec.md §4.3).
type CoinbaseFeeTransfer struct {
	Receiver ledger.AccountId
	Fee      uint64
}

// Coinbase is the block-reward transaction (spec.md GLOSSARY "Coinbase").
type Coinbase struct {
	Receiver    ledger.AccountId
	Amount      uint64
	FeeTransfer *CoinbaseFeeTransfer
}

// Transaction is the sum type apply_transaction dispatches on (spec.md
// §4.3 "Dispatches by txn kind").
type Transaction struct {
	SignedCommand *SignedCommand
	FeeTransfer   *FeeTransfer
	Coinbase      *Coinbase
	ZkAppCommand  *ZkAppCommand
}
