// Package resilience implements the retry and circuit-breaker primitives
// shared by every subsystem that calls out to an external or unreliable
// dependency (network peers, the WASM host, a remote storage backend).
// Grounded on _examples/original_source crates/icn-common/src/retry.rs and
// tests/resilience.rs, using github.com/benbjohnson/clock (already an
// indirect dependency of the teacher's go.mod) for an injectable clock so
// backoff and breaker timing are deterministically testable.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

// BackoffConfig parameterizes retry_with_backoff: delay starts at
// InitialDelay, doubles on every failed attempt, is capped at MaxDelay, and
// then has jitter in [0, delay/10] added after capping — matching retry.rs
// exactly.
type BackoffConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Clock        clock.Clock // nil defaults to the real clock
}

func (c BackoffConfig) clock() clock.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return clock.New()
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping a jittered
// exponential backoff between attempts, and returns the last error if every
// attempt fails. It stops early if ctx is cancelled.
func Retry(ctx context.Context, cfg BackoffConfig, fn func(ctx context.Context) error) error {
	cl := cfg.clock()
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		jittered := delay
		if delay > 0 {
			jittered += time.Duration(rand.Int63n(int64(delay)/10 + 1))
		}
		timer := cl.Timer(jittered)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}
