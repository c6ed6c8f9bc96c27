package resilience

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/icn-network/icn-node/internal/codes"
)

// BreakerState is one of the three circuit-breaker states from
// _examples/original_source crates/icn-common/tests/resilience.rs.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips to Open after Threshold consecutive failures, refuses
// calls while Open, and after ResetTimeout moves to HalfOpen, where Allow
// admits every call (the number of trial calls is not limited to one): a
// recorded success closes it, a recorded failure reopens it.
type CircuitBreaker struct {
	mu           sync.Mutex
	threshold    int
	resetTimeout time.Duration
	clock        clock.Clock

	state    BreakerState
	failures int
	openedAt time.Time
}

// NewCircuitBreaker builds a breaker with the given consecutive-failure
// threshold and reset timeout. A nil clk uses the real clock.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration, clk clock.Clock) *CircuitBreaker {
	if clk == nil {
		clk = clock.New()
	}
	return &CircuitBreaker{threshold: threshold, resetTimeout: resetTimeout, clock: clk, state: Closed}
}

// State reports the breaker's current state, resolving an expired Open
// timeout to HalfOpen as a side effect (matching the reference
// implementation: the transition is observed on the next access, not on a
// background timer).
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	return b.state
}

func (b *CircuitBreaker) maybeHalfOpenLocked() {
	if b.state == Open && b.clock.Now().Sub(b.openedAt) >= b.resetTimeout {
		b.state = HalfOpen
	}
}

// Allow reports whether a call may proceed, transitioning Open to HalfOpen
// if the reset timeout has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpenLocked()
	return b.state != Open
}

// RecordSuccess resets the failure count and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = Closed
}

// RecordFailure increments the failure count, tripping to Open once the
// threshold is reached (from Closed) or immediately on any HalfOpen
// failure.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case HalfOpen:
		b.trip()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	}
}

func (b *CircuitBreaker) trip() {
	b.state = Open
	b.openedAt = b.clock.Now()
	b.failures = 0
}

// Do runs fn if the breaker allows it, recording the outcome. Returns
// codes.CircuitOpen without calling fn if the breaker is tripped.
func (b *CircuitBreaker) Do(fn func() error) error {
	if !b.Allow() {
		return codes.New(codes.CircuitOpen, "circuit breaker is open")
	}
	err := fn()
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}
