// Package backoff wraps github.com/cenkalti/backoff/v4's interval
// arithmetic with the one-shot disconnect-report and hit_max latch
// semantics the send task needs when the transport refuses a datagram.
package backoff

import (
	"math/rand"
	"time"

	cenkaltibackoff "github.com/cenkalti/backoff/v4"
)

// Backoff tracks one reconnect attempt sequence. It is not safe for
// concurrent use; the send task owns a single instance.
type Backoff struct {
	attempt  uint8
	maxWait  time.Duration
	hitMax   bool
	reported bool

	exp *cenkaltibackoff.ExponentialBackOff
}

// New constructs a Backoff with the given cap on the computed wait.
func New(maxWait time.Duration) *Backoff {
	exp := cenkaltibackoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = maxWait
	exp.MaxElapsedTime = 0 // never give up on its own; hit_max is our latch
	exp.Reset()

	return &Backoff{
		maxWait: maxWait,
		exp:     exp,
	}
}

// Reset clears attempt count, the hit_max latch, and the one-shot report
// flag. Called on every successful send.
func (b *Backoff) Reset() {
	b.attempt = 0
	b.hitMax = false
	b.reported = false
	b.exp.Reset()
}

// HitMax reports whether the computed wait has already saturated at
// maxWait; once true, further Failure calls skip recomputation and always
// return maxWait.
func (b *Backoff) HitMax() bool {
	return b.hitMax
}

// Attempt returns the number of consecutive failures observed since the
// last Reset.
func (b *Backoff) Attempt() uint8 {
	return b.attempt
}

// Failure records one more failed send and returns the wait duration the
// caller should sleep before retrying, plus whether this is the first
// failure in the sequence (the caller should report "transport
// disconnected" exactly once per sequence on this signal).
func (b *Backoff) Failure() (wait time.Duration, firstFailure bool) {
	firstFailure = !b.reported
	b.reported = true

	if b.hitMax {
		return b.maxWait, firstFailure
	}

	// exp.NextBackOff drives the 2^attempt-second exponential growth (with
	// RandomizationFactor pinned to 0 so the library's own jitter doesn't
	// double up with ours); we layer our own U(1,999)ms jitter and cap on
	// top of that.
	base := b.exp.NextBackOff()
	jitter := time.Duration(1+rand.Intn(999)) * time.Millisecond
	wait = base + jitter
	if wait >= b.maxWait {
		wait = b.maxWait
		b.hitMax = true
	}

	b.attempt++
	return wait, firstFailure
}
