// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's explicit state: closed (calls flow),
// open (calls fail fast until the cooldown expires), half-open (a single
// probe call decides whether to close again).
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// Breaker sheds generator calls while the backend is failing hard. It counts
// consecutive failures; at the threshold it opens and fails calls fast for a
// cooldown period, then lets a single probe through. The clock is injected so
// tests never wait for real cooldowns. Safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	openedAt  time.Time
	probing   bool
}

// BreakerOption customizes a Breaker at construction.
type BreakerOption func(*Breaker)

// WithBreakerClock injects the time source.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// NewBreaker builds a closed Breaker that opens after threshold consecutive
// failures and stays open for cooldown.
func NewBreaker(threshold int, cooldown time.Duration, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		state:     BreakerClosed,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. An open breaker whose cooldown
// has expired moves to half-open and admits exactly one probe; further calls
// are denied until the probe settles.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		b.probing = true
		return true
	case BreakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// Success records a successful call. A half-open probe success closes the
// breaker; any success resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.state = BreakerClosed
}

// Failure records a failed call. A half-open probe failure reopens the
// breaker immediately; in the closed state the breaker opens once the
// consecutive-failure threshold is reached.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.open()
	case BreakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.now()
	b.failures = 0
	b.probing = false
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
