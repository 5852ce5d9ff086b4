package txn

import "github.com/mina-go/node/ledger"

// LegacyHasher computes the receipt-chain-hash update. Real Mina uses the
// *legacy* (non-Poseidon-optimized) hash here with domain string
// "MinaReceiptUC" — spec.md §9's Open Question flags this split, and
// original_source/ledger/src/scan_state/transaction_logic.rs's
// cons_signed_command_payload confirms it exactly: everything else in the
// ledger uses the newer Poseidon hash, only the receipt chain still uses
// the legacy one. This repo names that fact rather than silently picking
// either hash.
//
// Like ledger.Hasher, this is a black-box predicate (spec.md §1) injected
// by the caller rather than computed here.
type LegacyHasher interface {
	// HashReceiptChainUpdate returns hash("MinaReceiptUC", payload ⧺ prev)
	// per spec.md §4.3 step 2.
	HashReceiptChainUpdate(payload SignedCommandPayload, prev ledger.Field) ledger.Field
}

// UpdateReceiptChainHash is a pure function of (prev_receipt,
// signed_command_payload) (spec.md §8 Invariant 7), delegating the actual
// hashing to the injected LegacyHasher.
func UpdateReceiptChainHash(h LegacyHasher, payload SignedCommandPayload, prev ledger.Field) ledger.Field {
	return h.HashReceiptChainUpdate(payload, prev)
}
