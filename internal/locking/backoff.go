package locking

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff wraps cenkalti/backoff/v4's ExponentialBackOff to produce the
// 10ms→1.1s doubling sequence spec.md §4.3 specifies, without letting
// the library's own MaxElapsedTime end the sequence — the controller's
// own Budget is the sole timeout authority (§5), backoff here is only
// ever asked "what's the next delay".
type Backoff struct {
	inner *backoff.ExponentialBackOff
}

// NewBackoff constructs the spec-mandated sequence: initial 10ms,
// factor 2, cap 1.1s, no randomization jitter (randomization would make
// the steady-state retry cadence non-deterministic, which the wait
// observer's throttling logic depends on being predictable).
func NewBackoff() *Backoff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 1100 * time.Millisecond
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // unbounded: Budget enforces the timeout, not this.
	b.Reset()
	return &Backoff{inner: b}
}

// Next returns the next delay in the sequence and advances it.
func (b *Backoff) Next() time.Duration {
	return b.inner.NextBackOff()
}

func (b *Backoff) Reset() {
	b.inner.Reset()
}
