// Package ratelimit spaces out the fetches of a single worker.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Politeness enforces a fixed pause between the end of one fetch and the
// start of the next made by the same worker. It is owned by one worker and
// is not safe for concurrent use.
type Politeness struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewPoliteness creates a limiter pausing delay after every fetch.
// A non-positive delay disables waiting.
func NewPoliteness(delay time.Duration) *Politeness {
	return &Politeness{
		limiter: newLimiter(delay),
		delay:   delay,
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Wait blocks until the next fetch may start. Before the first Done it
// returns immediately.
func (p *Politeness) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Done marks the end of a fetch. The next Wait returns one delay after it,
// however long the fetch took.
func (p *Politeness) Done() {
	if p.delay <= 0 {
		return
	}
	p.limiter = newLimiter(p.delay)
	p.limiter.ReserveN(time.Now(), 1)
}

// Delay returns the configured delay.
func (p *Politeness) Delay() time.Duration {
	return p.delay
}
