package txn

import "github.com/mina-go/node/ledger"

// AuthorizationKind tags how an account update claims to be authorized
// (spec.md §4.3 zkApp authorization-kind check, dispatched through
// ledger.Permission.Satisfied).
type AuthorizationKind int

const (
	AuthNone AuthorizationKind = iota
	AuthSignature
	AuthProof
)

// CallType distinguishes an ordinary call from a delegate call (spec.md
// GLOSSARY "Call forest"). applyForest does not read CallType: Call and
// DelegateCall children are applied the same way, each against its own
// AccountUpdateBody.AccountId, with no token-id context passed down from
// the caller.
type CallType int

const (
	Call CallType = iota
	DelegateCall
)

// Range is an inclusive [Min, Max] bound used by both account and protocol
// state preconditions; a nil Range imposes no constraint.
type Range struct {
	Min uint32
	Max uint32
}

func (r *Range) contains(v uint32) bool {
	if r == nil {
		return true
	}
	return v >= r.Min && v <= r.Max
}

// AccountPrecondition gates an account update on the fields of the account
// it targets (spec.md §4.3 "account preconditions").
type AccountPrecondition struct {
	Balance          *Range
	Nonce            *Range
	ReceiptChainHash *ledger.Field
	Delegate         *ledger.PublicKey
	State            [8]*ledger.Field
	ProvedState      *bool
	IsNew            *bool
}

// check evaluates the precondition against acc, returning the first
// violated field as a FailureTag, or "" if satisfied.
func (p AccountPrecondition) check(acc *ledger.Account, wasNew bool) FailureTag {
	if p.Balance != nil && !p.Balance.contains(uint32(acc.Balance)) {
		return FailureAccountBalancePreconditionUnsatisfied
	}
	if p.Nonce != nil && !p.Nonce.contains(acc.Nonce) {
		return FailureAccountNoncePreconditionUnsatisfied
	}
	if p.ReceiptChainHash != nil && *p.ReceiptChainHash != acc.ReceiptChainHash {
		return FailureAccountReceiptChainHashPreconditionUnsatisfied
	}
	if p.Delegate != nil && (acc.Delegate == nil || *acc.Delegate != *p.Delegate) {
		return FailureAccountDelegatePreconditionUnsatisfied
	}
	for i, want := range p.State {
		if want == nil {
			continue
		}
		if acc.ZkApp == nil || acc.ZkApp.AppState[i] != *want {
			return FailureAccountAppStatePreconditionUnsatisfied
		}
	}
	if p.ProvedState != nil {
		have := acc.ZkApp != nil && acc.ZkApp.ProvedState
		if have != *p.ProvedState {
			return FailureAccountProvedStatePreconditionUnsatisfied
		}
	}
	if p.IsNew != nil && *p.IsNew != wasNew {
		return FailureAccountProvedStatePreconditionUnsatisfied
	}
	return ""
}

// NetworkPrecondition gates an account update on the surrounding protocol
// state (spec.md §4.3 "protocol state preconditions"); only the slot window
// relevant to sync/apply is modeled, matching the reference stub.
type NetworkPrecondition struct {
	GlobalSlotSinceGenesis *Range
}

func (p NetworkPrecondition) check(globalSlot uint32) bool {
	return p.GlobalSlotSinceGenesis.contains(globalSlot)
}

// Update carries the optional field writes an account update may make; a
// nil pointer means "leave unchanged" (spec.md §4.3).
type Update struct {
	AppState    [8]*ledger.Field
	Delegate    *ledger.PublicKey
	Permissions *ledger.Permissions
	VotingFor   *ledger.Field
}

// AccountUpdateBody is the content of one node in a zkApp call forest
// (spec.md §4.3).
type AccountUpdateBody struct {
	AccountId      ledger.AccountId
	Update         Update
	BalanceChange  int64 // signed; negative debits, positive credits
	IncrementNonce bool

	Authorization AuthorizationKind
	Signature     *Signature
	Proof         []byte

	Network CombinedPrecondition
	CallType CallType
}

// CombinedPrecondition bundles both precondition kinds a single account
// update can carry.
type CombinedPrecondition struct {
	Account AccountPrecondition
	State   NetworkPrecondition
}

// AccountUpdate is one node of the call forest plus its children (spec.md
// GLOSSARY "Call forest").
type AccountUpdate struct {
	Body     AccountUpdateBody
	Children []*AccountUpdate
}

// ZkAppFeePayer is the fee-payer half of a zkApp command; structurally the
// same fields a SignedCommandPayload's fee-payer portion carries, without a
// transfer body (spec.md §4.3).
type ZkAppFeePayer struct {
	FeePayer   ledger.AccountId
	Fee        uint64
	Nonce      uint32
	ValidUntil uint32
	Memo       Memo
}

// ZkAppCommand pairs a fee payer with the forest of account updates it
// authorizes (spec.md §4.3, GLOSSARY "zkApp command").
type ZkAppCommand struct {
	FeePayer       ZkAppFeePayer
	AccountUpdates []*AccountUpdate
}

// GlobalState is the protocol-wide state the zkApp interpreter reads
// (spec.md §4.3's GlobalState/LocalState split).
type GlobalState struct {
	Ledger            ledger.Ledger
	CurrentGlobalSlot uint32
}

// LocalState accumulates per-account-update bookkeeping across one call
// forest: the running fee excess and the accounts touched so a failed
// command can be reported without the ledger effects of later updates
// leaking into the outcome (spec.md §4.3).
type LocalState struct {
	SupplyIncrease int64
	Failures       [][]FailureTag
	TouchedOrder   []ledger.AccountId
}

// Eff is the effect algebra the zkApp interpreter dispatches through,
// mirroring the reference implementation's Eff<L> enum so every externally
// observable action (reading a precondition-checked account, consulting the
// network state, initializing a brand new account) goes through one
// dispatch point (`perform`) rather than being inlined ad hoc across the
// recursive forest walk.
type Eff interface{ isEff() }

// CheckAccountPrecondition evaluates an AccountPrecondition against the
// current (possibly freshly-initialized) account.
type CheckAccountPrecondition struct {
	Account     *ledger.Account
	WasNew      bool
	Precondition AccountPrecondition
}

func (CheckAccountPrecondition) isEff() {}

// CheckProtocolStatePrecondition evaluates a NetworkPrecondition against the
// global state's current slot.
type CheckProtocolStatePrecondition struct {
	State        GlobalState
	Precondition NetworkPrecondition
}

func (CheckProtocolStatePrecondition) isEff() {}

// InitAccount returns a freshly allocated, zero-value account for an id not
// yet present in the ledger, mirroring ledger.NewAccount.
type InitAccount struct {
	Id ledger.AccountId
}

func (InitAccount) isEff() {}

// perform dispatches one Eff to its concrete behavior. It reads only the
// values carried in the Eff and touches no ledger; applyForest and
// ApplyZkAppCommand do the ledger reads and writes themselves through
// GetOrCreate and Set, and neither of them performs InitAccount.
func perform(e Eff) interface{} {
	switch v := e.(type) {
	case CheckAccountPrecondition:
		return v.Precondition.check(v.Account, v.WasNew)
	case CheckProtocolStatePrecondition:
		return v.Precondition.check(v.State.CurrentGlobalSlot)
	case InitAccount:
		return ledger.NewAccount(v.Id)
	default:
		return nil
	}
}

// ApplyZkAppCommand applies a zkApp command's fee payer and then its call
// forest (spec.md §4.3). The fee payer's effects always persist once
// validated, matching ApplySignedCommand; the call forest's effects are
// rolled back in full if any account update in it fails, since
// ledger.Ledger offers no account-deletion primitive a freshly-materialized
// account from a failed branch is left allocated with its zero-value
// initial state, which is financially inert and is the one place this
// interpreter's atomicity is approximate rather than exact.
func ApplyZkAppCommand(
	l ledger.Ledger,
	cmd *ZkAppCommand,
	cc ConstraintConstants,
	globalSlot uint32,
	hasher LegacyHasher,
	verifier Verifier,
) (*TransactionApplied, error) {
	result := &TransactionApplied{
		PreApplyRoot: l.MerkleRoot(),
		Kind:         KindZkAppCommand,
		ZkApp:        cmd,
		Status:       StatusApplied,
	}

	feePayload := SignedCommandPayload{
		FeePayer:   cmd.FeePayer.FeePayer,
		Fee:        cmd.FeePayer.Fee,
		Nonce:      cmd.FeePayer.Nonce,
		ValidUntil: cmd.FeePayer.ValidUntil,
		Memo:       cmd.FeePayer.Memo,
	}
	_, _, timingFailure, err := applyFeePayer(l, feePayload, cmd.FeePayer.FeePayer.PublicKey, globalSlot, hasher)
	if err != nil {
		return nil, err
	}
	if timingFailure != nil {
		result.Status = StatusFailed
		result.Failures = [][]FailureTag{{*timingFailure}}
		return result, nil
	}

	snapshots := make(map[ledger.AccountId]*ledger.Account)
	locations := make(map[ledger.AccountId]ledger.Address)
	var newAccounts []ledger.AccountId
	state := GlobalState{Ledger: l, CurrentGlobalSlot: globalSlot}

	var failures [][]FailureTag
	ok := true
	for _, update := range cmd.AccountUpdates {
		if !applyForest(l, cc, state, update, snapshots, locations, &newAccounts, &failures, verifier) {
			ok = false
		}
	}

	if !ok {
		for id, original := range snapshots {
			if loc, exists := locations[id]; exists {
				l.Set(loc, original)
			}
		}
		result.Status = StatusFailed
		result.Failures = failures
		return result, nil
	}

	result.NewAccounts = newAccounts
	result.Failures = failures
	return result, nil
}

// applyForest applies update and recurses into its children, returning
// false if this node or any descendant failed. Every node's outcome (even
// an empty one, on success) is appended to *failures, preserving one inner
// list per processed account update (spec.md §3 "list of lists").
func applyForest(
	l ledger.Ledger,
	cc ConstraintConstants,
	state GlobalState,
	update *AccountUpdate,
	snapshots map[ledger.AccountId]*ledger.Account,
	locations map[ledger.AccountId]ledger.Address,
	newAccounts *[]ledger.AccountId,
	failures *[][]FailureTag,
	verifier Verifier,
) bool {
	body := update.Body
	id := body.AccountId

	created, acc, loc, err := l.GetOrCreate(id)
	if err != nil {
		*failures = append(*failures, []FailureTag{FailureOverflow})
		return false
	}
	locations[id] = loc
	if _, seen := snapshots[id]; !seen {
		snapshots[id] = acc.Clone()
	}
	if created == ledger.Added {
		*newAccounts = append(*newAccounts, id)
	}

	wasNew := created == ledger.Added
	networkOk, _ := perform(CheckProtocolStatePrecondition{State: state, Precondition: body.Network.State}).(bool)
	if !networkOk {
		*failures = append(*failures, []FailureTag{FailureProtocolStatePreconditionUnsatisfied})
		return false
	}
	if tag, _ := perform(CheckAccountPrecondition{Account: acc, WasNew: wasNew, Precondition: body.Network.Account}).(FailureTag); tag != "" {
		*failures = append(*failures, []FailureTag{tag})
		return false
	}

	if body.Authorization == AuthSignature && acc.Permissions.EditState != ledger.PermImpossible && !acc.Permissions.EditState.Satisfied(true, false) {
		*failures = append(*failures, []FailureTag{FailureUpdateNotPermittedAppState})
		return false
	}
	if body.Authorization == AuthProof && !verifyZkAppProof(verifier, body, acc) {
		*failures = append(*failures, []FailureTag{FailureProofVerificationFailed})
		return false
	}

	applyUpdate(acc, body.Update)

	if body.BalanceChange < 0 {
		debit := uint64(-body.BalanceChange)
		if acc.Balance < debit {
			*failures = append(*failures, []FailureTag{FailureSourceInsufficientBalance})
			return false
		}
		acc.Balance -= debit
	} else {
		acc.Balance += uint64(body.BalanceChange)
	}
	if body.IncrementNonce {
		acc.Nonce++
	}
	if !acc.CheckMinBalance(state.CurrentGlobalSlot) {
		*failures = append(*failures, []FailureTag{FailureSourceMinimumBalanceViolation})
		return false
	}

	l.Set(loc, acc)
	*failures = append(*failures, nil)

	for _, child := range update.Children {
		if !applyForest(l, cc, state, child, snapshots, locations, newAccounts, failures, verifier) {
			return false
		}
	}
	return true
}

// applyUpdate writes the non-nil fields of u into acc; nil means "leave
// unchanged" (spec.md §4.3).
func applyUpdate(acc *ledger.Account, u Update) {
	if acc.ZkApp == nil {
		acc.ZkApp = &ledger.ZkAppState{}
	}
	for i, v := range u.AppState {
		if v != nil {
			acc.ZkApp.AppState[i] = *v
		}
	}
	if u.Delegate != nil {
		acc.Delegate = u.Delegate
	}
	if u.Permissions != nil {
		acc.Permissions = *u.Permissions
	}
	if u.VotingFor != nil {
		acc.ZkApp.VotingFor = *u.VotingFor
	}
}

// verifyZkAppProof consults the injected Verifier for a proof-authorized
// update; spec.md §9's Open Question on check_authorization applies here
// identically to package txn's signed-command verification path.
func verifyZkAppProof(verifier Verifier, body AccountUpdateBody, acc *ledger.Account) bool {
	if acc.ZkApp == nil || acc.ZkApp.VerificationKey == nil {
		return false
	}
	var commitment ledger.Field
	return verifier.VerifyProof(body.Proof, commitment, *acc.ZkApp.VerificationKey)
}
