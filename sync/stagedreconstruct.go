package sync

import "context"

// queryStagedReconstruct implements C4: once the snarked ledger's BFS
// descent (C3) has filled in every account, a single peer is asked for the
// staged-ledger auxiliary data (the pending-coinbase stack and in-progress
// scan-state tree) needed to reconstruct the staged ledger over that now-
// complete account ledger (spec.md §4.4).
func (e *Engine) queryStagedReconstruct(ctx context.Context, gen uint64) {
	peer, err := PickPeer(e.channel, nil)
	if err != nil {
		logger.Warn("no peer for staged ledger reconstruct", "err", err)
		return
	}

	_, err = e.channel.QueryStagedLedgerAux(ctx, peer)
	if err != nil {
		e.enqueue(Action{Kind: KindStagedReconstructError, StagedReconstructError: &StagedReconstructErrorPayload{PeerID: peer, Generation: gen}})
		return
	}
	// Reconstruction itself — folding the aux data's scan-state tree back
	// into a StagedLedger over e.state.LedgerSync.Ledger — is performed by
	// the caller supplying this engine's RpcChannel, since it owns the
	// scan-state/pending-coinbase types this package intentionally treats
	// as opaque (spec.md §1 "staged ledger internals consumed as a black
	// box capability" mirrors the C4 boundary the same way RpcChannel does
	// for C3/C5).
	e.enqueue(Action{Kind: KindStagedReconstructSuccess, StagedReconstructSuccess: &StagedReconstructSuccessPayload{PeerID: peer, Generation: gen}})
}
