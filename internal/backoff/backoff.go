// Package backoff computes wait times for retrying transient failures,
// such as the CLI re-polling a task view after a network error.
package backoff

import (
	"math/rand"
	"time"
)

// Policy doubles the delay on every consecutive failure, clamped to Cap.
// The zero value is usable and waits one second.
type Policy struct {
	Base time.Duration
	Cap  time.Duration
}

// Delay returns the wait before the next try after n consecutive failures.
// Equal jitter spreads the result across [d/2, d] so independent clients
// recovering from the same outage do not retry in lockstep, while keeping
// a floor that prevents hot-looping.
func (p Policy) Delay(n int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	limit := p.Cap
	if limit < base {
		limit = base
	}
	if n < 0 {
		n = 0
	}

	d := base
	for i := 0; i < n && d < limit; i++ {
		d *= 2
	}
	if d > limit {
		d = limit
	}

	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
