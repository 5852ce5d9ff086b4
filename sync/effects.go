package sync

import (
	"context"
	"time"

	"github.com/mina-go/node/ledger"
	"github.com/mina-go/node/stats"
)

// Engine owns one orchestrator State and drives it by dispatching actions
// received on a single channel, mirroring work/agent.go's single-goroutine-
// owns-mutable-state pattern: nothing outside run's loop ever touches State
// directly, so there is no mutex to forget.
type Engine struct {
	state   *State
	channel RpcChannel
	hasher  ledger.Hasher

	actions chan Action
	stop    chan struct{}

	// onLedgerRootSuccess and onBlocksSuccess (and the other hooks below)
	// let a caller (e.g. C4's staged reconstruct step or a CLI) learn when
	// a phase completes without polling State from another goroutine.
	onLedgerRootDiscovered func(ledger.Field)
	onLedgerRootSuccess    func(*State)
	onBlocksSuccess        func(*State)
	onFatal                func(error)
	onApplyBlock           func(height uint64, block []byte) error

	// publisher is optional: a nil publisher simply means no observer
	// notifications are emitted, which keeps the engine usable in tests
	// without a live Kafka broker.
	publisher *stats.Publisher

	concurrency int
}

// NewEngine constructs an idle Engine over channel, grounded on
// work/agent.go's NewCpuAgent constructor shape.
func NewEngine(channel RpcChannel, hasher ledger.Hasher) *Engine {
	return &Engine{
		state:       NewState(),
		channel:     channel,
		hasher:      hasher,
		actions:     make(chan Action, 64),
		stop:        make(chan struct{}),
		concurrency: 16,
	}
}

// OnLedgerRootDiscovered registers a callback invoked once a peer's root
// hash has been learned, so the caller can supply a destination ledger and
// call StartLedgerSync.
func (e *Engine) OnLedgerRootDiscovered(f func(ledger.Field)) { e.onLedgerRootDiscovered = f }

// OnLedgerRootSuccess registers a callback invoked once the ledger reaches
// StatusLedgerRootSuccess.
func (e *Engine) OnLedgerRootSuccess(f func(*State)) { e.onLedgerRootSuccess = f }

// OnBlocksSuccess registers a callback invoked once block sync reaches
// StatusBlocksSuccess.
func (e *Engine) OnBlocksSuccess(f func(*State)) { e.onBlocksSuccess = f }

// OnFatal registers a callback invoked when a query permanently exceeds its
// attempt cap (spec.md §6 "Attempt cap exceeded ⇒ fatal") or when the
// OnApplyBlock hook returns an error for a block.
func (e *Engine) OnFatal(f func(error)) { e.onFatal = f }

// OnApplyBlock registers the callback C5 invokes to apply each fetched
// block, in strict height order, against the caller's ledger/chain state.
func (e *Engine) OnApplyBlock(f func(height uint64, block []byte) error) { e.onApplyBlock = f }

// SetStatsPublisher wires a downstream observer publisher (spec.md §4.1 op
// 10): once set, every ledger-root discovery and every phase success is
// also mirrored onto the publisher's Kafka topics.
func (e *Engine) SetStatsPublisher(p *stats.Publisher) { e.publisher = p }

// Init implements C6 op 1 (spec.md §4.1 "Init(target)"): begins syncing
// toward target, using dest as the ledger the BFS descent fills. Disabled
// unless the engine is Idle or target's snarked ledger hash differs from
// whatever it is currently chasing.
func (e *Engine) Init(target SyncTarget, dest ledger.Ledger) {
	e.enqueue(Action{Kind: KindInit, Init: &InitPayload{Target: target, Ledger: dest}})
}

// BestTipUpdate implements C6 op 2 (spec.md §4.1 "BestTipUpdate(target)"):
// re-targets an in-progress or finished sync at a newly announced best
// tip. If target's snarked ledger hash matches the one already being
// synced, the BFS descent's progress is preserved and only the block-sync
// chain is recomputed (the caller re-issues StartBlockSync once this
// resolves into a fresh StatusLedgerRootSuccess); otherwise this behaves
// exactly like Init.
func (e *Engine) BestTipUpdate(target SyncTarget, dest ledger.Ledger) {
	e.enqueue(Action{Kind: KindBestTipUpdate, BestTipUpdate: &BestTipUpdatePayload{Target: target, Ledger: dest}})
}

// StartBlockSync transitions from StatusLedgerRootSuccess into C5, fetching
// every block from fromHeight through targetHeight inclusive.
func (e *Engine) StartBlockSync(fromHeight, targetHeight uint64) {
	e.enqueue(Action{Kind: KindBlocksInit, BlocksInit: &BlocksInitPayload{FromHeight: fromHeight, TargetHeight: targetHeight}})
}

// StartLedgerSync transitions from StatusLedgerRootPending into C3 once the
// caller has prepared a destination ledger for the discovered targetRoot
// (spec.md §6: LedgerSyncInit carries the ledger the BFS descent fills).
func (e *Engine) StartLedgerSync(targetRoot ledger.Field, dest ledger.Ledger) {
	e.enqueue(Action{Kind: KindLedgerSyncInit, LedgerSyncInit: &LedgerSyncInitPayload{TargetRoot: targetRoot, Ledger: dest}})
}

// fatal reports a terminal sync error and rewinds to Init for the current
// target (spec.md §7 "Terminal sync error ... Handled by rewinding to Init
// for the current target and emitting an observable error").
func (e *Engine) fatal(err error) {
	logger.Error("sync engine fatal", "err", err)
	FatalTotal.Inc()
	if e.onFatal != nil {
		e.onFatal(err)
	}
	e.enqueue(Action{Kind: KindRewindToInit})
}

// Start begins syncing toward a new snarked-ledger root and runs the event
// loop in the background.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
	e.actions <- Action{Kind: KindLedgerRootQueryInit}
}

// Stop halts the event loop; State is left as-is for inspection.
func (e *Engine) Stop() { close(e.stop) }

// State returns a snapshot pointer; callers must not mutate it. Safe to
// call only after Stop, or for read-only diagnostics (e.g. metrics).
func (e *Engine) State() *State { return e.state }

func (e *Engine) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatch(ctx, Action{Kind: KindCheckTimeouts, Now: time.Now().UnixNano()})
		case action := <-e.actions:
			e.dispatch(ctx, action)
		}
	}
}

// dispatch is the single choke point every action flows through: it
// enforces IsEnabled, runs the pure Reduce, then triggers whatever I/O the
// new state calls for (spec.md §6's reducer/effects split).
func (e *Engine) dispatch(ctx context.Context, action Action) {
	if !IsEnabled(e.state, action) {
		logger.Debug("dropping disabled action", "kind", action.Kind)
		return
	}
	if err := Reduce(e.state, action); err != nil {
		logger.Warn("reduce failed", "err", err)
		return
	}
	e.runEffects(ctx, action)
}

func (e *Engine) enqueue(a Action) {
	select {
	case e.actions <- a:
	default:
		logger.Warn("action queue full, dropping", "kind", a.Kind)
	}
}

func (e *Engine) runEffects(ctx context.Context, action Action) {
	switch e.state.Status {
	case StatusLedgerRootPending:
		if action.Kind == KindLedgerRootQueryInit {
			go e.queryLedgerRoot(ctx)
		}
		if action.Kind == KindLedgerRootQuerySuccess {
			if e.onLedgerRootDiscovered != nil {
				e.onLedgerRootDiscovered(action.LedgerRootQuerySuccess.Root)
			}
			if e.publisher != nil {
				if err := e.publisher.PublishLedgerRootDiscovered(time.Now().UnixNano(), action.LedgerRootQuerySuccess.Root); err != nil {
					logger.Warn("publish ledger root discovered failed", "err", err)
				}
			}
		}
	case StatusLedgerSyncPending:
		e.stepLedgerSync(ctx)
	case StatusLedgerRootSuccess:
		if e.onLedgerRootSuccess != nil {
			e.onLedgerRootSuccess(e.state)
		}
		if e.publisher != nil {
			if err := e.publisher.PublishLedgerSynced(time.Now().UnixNano(), e.state.LedgerSync.TargetRoot); err != nil {
				logger.Warn("publish ledger synced failed", "err", err)
			}
		}
	case StatusBlocksPending:
		e.stepBlockSync(ctx)
	case StatusBlocksSuccess:
		if e.onBlocksSuccess != nil {
			e.onBlocksSuccess(e.state)
		}
		if e.publisher != nil {
			if err := e.publisher.PublishBlocksSynced(time.Now().UnixNano(), e.state.BlockSync.TargetHeight); err != nil {
				logger.Warn("publish blocks synced failed", "err", err)
			}
		}
	}
	if action.Kind == KindCheckTimeouts {
		e.checkTimeouts()
	}
}

func (e *Engine) queryLedgerRoot(ctx context.Context) {
	peer, err := PickPeer(e.channel, nil)
	if err != nil {
		logger.Warn("no peer for ledger root query", "err", err)
		return
	}
	root, err := e.channel.QueryLedgerRoot(ctx, peer)
	if err != nil {
		logger.Warn("ledger root query failed", "peer", peer, "err", err)
		return
	}
	e.enqueue(Action{Kind: KindLedgerRootQuerySuccess, LedgerRootQuerySuccess: &LedgerRootQuerySuccessPayload{PeerID: peer, Root: root}})
}
