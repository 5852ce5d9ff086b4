package txn

import "github.com/mina-go/node/ledger"

// FailureTag names one reason a command, fee transfer single, coinbase
// credit, or zkApp account update failed (spec.md §3 "status (Applied |
// Failed(list-of-lists of failure tags))").
type FailureTag string

const (
	FailurePredecessorPresent               FailureTag = "PredecessorPresent"
	FailureSourceNotPresent                 FailureTag = "SourceNotPresent"
	FailureReceiverNotPresent               FailureTag = "ReceiverNotPresent"
	FailureAmountInsufficientToCreateAccount FailureTag = "AmountInsufficientToCreateAccount"
	FailureOverflow                         FailureTag = "Overflow"
	FailureSourceInsufficientBalance        FailureTag = "SourceInsufficientBalance"
	FailureSourceMinimumBalanceViolation    FailureTag = "SourceMinimumBalanceViolation"
	FailureUpdateNotPermittedBalance        FailureTag = "UpdateNotPermittedBalance"
	FailureUpdateNotPermittedDelegate       FailureTag = "UpdateNotPermittedDelegate"
	FailureUpdateNotPermittedAppState       FailureTag = "UpdateNotPermittedAppState"
	FailureUpdateNotPermittedVerificationKey FailureTag = "UpdateNotPermittedVerificationKey"
	FailureUpdateNotPermittedNonce          FailureTag = "UpdateNotPermittedNonce"
	FailureUpdateNotPermittedVotingFor      FailureTag = "UpdateNotPermittedVotingFor"
	FailureInvalidFeeExcess                 FailureTag = "InvalidFeeExcess"
	FailureAccountNoncePreconditionUnsatisfied             FailureTag = "AccountNoncePreconditionUnsatisfied"
	FailureAccountBalancePreconditionUnsatisfied           FailureTag = "AccountBalancePreconditionUnsatisfied"
	FailureAccountDelegatePreconditionUnsatisfied          FailureTag = "AccountDelegatePreconditionUnsatisfied"
	FailureAccountReceiptChainHashPreconditionUnsatisfied  FailureTag = "AccountReceiptChainHashPreconditionUnsatisfied"
	FailureAccountSequenceStatePreconditionUnsatisfied     FailureTag = "AccountSequenceStatePreconditionUnsatisfied"
	FailureAccountAppStatePreconditionUnsatisfied          FailureTag = "AccountAppStatePreconditionUnsatisfied"
	FailureAccountProvedStatePreconditionUnsatisfied       FailureTag = "AccountProvedStatePreconditionUnsatisfied"
	FailureProtocolStatePreconditionUnsatisfied            FailureTag = "ProtocolStatePreconditionUnsatisfied"
	FailureSignatureVerificationFailed       FailureTag = "SignatureVerificationFailed"
	FailureProofVerificationFailed           FailureTag = "ProofVerificationFailed"
	FailureIncorrectNonce                    FailureTag = "IncorrectNonce"
)

// Status aggregates the outcome of applying a transaction.
type Status int

const (
	StatusApplied Status = iota
	StatusFailed
)

// Kind tags which payload a TransactionApplied carries (spec.md §3
// "Varying payload (Command/FeeTransfer/Coinbase)").
type Kind int

const (
	KindSignedCommand Kind = iota
	KindFeeTransfer
	KindCoinbase
	KindZkAppCommand
)

func (k Kind) String() string {
	switch k {
	case KindSignedCommand:
		return "signed_command"
	case KindFeeTransfer:
		return "fee_transfer"
	case KindCoinbase:
		return "coinbase"
	case KindZkAppCommand:
		return "zkapp_command"
	default:
		return "unknown"
	}
}

// AppliedSignedCommand records the body actually applied, for inclusion in
// TransactionApplied when Kind == KindSignedCommand.
type AppliedSignedCommand struct {
	Command *SignedCommand
}

// TransactionApplied is the record produced by apply_transaction (spec.md
// §3, §4.3 "Outputs").
type TransactionApplied struct {
	PreApplyRoot ledger.Field
	Kind         Kind
	SignedCmd    *AppliedSignedCommand
	FeeTransfer  *FeeTransfer
	Coinbase     *Coinbase
	ZkApp        *ZkAppCommand

	NewAccounts  []ledger.AccountId
	Status       Status
	Failures     [][]FailureTag
	BurnedTokens uint64
}
