package sync

import (
	"math"
	"time"

	"github.com/mina-go/node/syncerrors"
)

// MaxAttempts bounds how many times a single node/block query may be
// retried across peers before the sync engine gives up (spec.md §6
// "Attempt cap").
const MaxAttempts = 8

// BaseBackoff and MaxBackoff bound the exponential backoff Backoff computes
// (spec.md §6 "retry, backoff"), grounded on the same doubling-with-ceiling
// shape work/worker.go uses for its mining retry loop. The Engine does not
// call Backoff: a failed or timed-out ledger query goes back on the
// frontier at once and is re-sent on the next effects pass, with no delay.
const (
	BaseBackoff = 200 * time.Millisecond
	MaxBackoff  = 30 * time.Second
)

// Backoff returns the delay before attempt number n (1-indexed) is retried.
func Backoff(n int) time.Duration {
	if n <= 1 {
		return BaseBackoff
	}
	d := float64(BaseBackoff) * math.Pow(2, float64(n-1))
	if d > float64(MaxBackoff) {
		return MaxBackoff
	}
	return time.Duration(d)
}

// PickPeer selects the next peer to query from channel, excluding any in
// exclude, returning syncerrors.ErrNoEligiblePeers if none remain (spec.md
// §6 "peer selection").
func PickPeer(channel RpcChannel, exclude map[string]bool) (string, error) {
	for _, p := range channel.EligiblePeers() {
		if !exclude[p] {
			return p, nil
		}
	}
	return "", syncerrors.ErrNoEligiblePeers
}

// CheckAttemptCap returns syncerrors.ErrAttemptCapExceeded once attempts
// has reached MaxAttempts (spec.md §6 "Attempt cap exceeded ⇒ fatal").
func CheckAttemptCap(attempts int) error {
	if attempts >= MaxAttempts {
		return syncerrors.ErrAttemptCapExceeded
	}
	return nil
}
