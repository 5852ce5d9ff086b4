package txn

import "github.com/mina-go/node/ledger"

// Verifier is the injected cryptographic capability for signature and
// zk-proof verification (spec.md §1 "Cryptographic primitives ... consumed
// as black-box predicates"). Nothing in this package ever computes a
// signature or proof check itself.
//
// spec.md §9's Open Question on check_authorization applies to
// VerifyProof: the reference implementation stubs it to "proof present ⇒
// valid"; a real Verifier must actually verify, but this package's
// contract with it is purely the boolean return.
type Verifier interface {
	VerifySignature(signer ledger.PublicKey, sig Signature, commitment ledger.Field) bool
	VerifyProof(proof []byte, commitment ledger.Field, verificationKey ledger.Field) bool
}
