package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	mock := clock.NewMock()
	cfg := BackoffConfig{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second, Clock: mock}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Retry(context.Background(), cfg, func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	}()

	// advance the mock clock until the retry loop settles
	for i := 0; i < 10; i++ {
		mock.Add(time.Second)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	mock := clock.NewMock()
	cfg := BackoffConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Second, Clock: mock}

	done := make(chan error, 1)
	go func() {
		done <- Retry(context.Background(), cfg, func(ctx context.Context) error {
			return errors.New("permanent")
		})
	}()
	for i := 0; i < 10; i++ {
		mock.Add(time.Second)
	}
	if err := <-done; err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
}

func TestCircuitBreakerStateTransitions(t *testing.T) {
	mock := clock.NewMock()
	cb := NewCircuitBreaker(2, 100*time.Millisecond, mock)

	if cb.State() != Closed {
		t.Fatal("breaker must start closed")
	}
	cb.RecordFailure()
	if cb.State() != Closed {
		t.Fatal("below threshold, breaker must remain closed")
	}
	cb.RecordFailure()
	if cb.State() != Open {
		t.Fatal("at threshold, breaker must open")
	}
	if cb.Allow() {
		t.Fatal("open breaker must not allow calls")
	}

	mock.Add(200 * time.Millisecond)
	if cb.State() != HalfOpen {
		t.Fatal("breaker must move to half-open after reset timeout")
	}
}

func TestCircuitBreakerRecoversAfterSuccess(t *testing.T) {
	mock := clock.NewMock()
	cb := NewCircuitBreaker(1, 50*time.Millisecond, mock)

	cb.RecordFailure()
	if cb.State() != Open {
		t.Fatal("expected open after single failure at threshold 1")
	}
	mock.Add(100 * time.Millisecond)
	if cb.State() != HalfOpen {
		t.Fatal("expected half-open after reset timeout")
	}
	cb.RecordSuccess()
	if cb.State() != Closed {
		t.Fatal("expected closed after half-open success")
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	mock := clock.NewMock()
	cb := NewCircuitBreaker(1, 50*time.Millisecond, mock)

	cb.RecordFailure()
	mock.Add(100 * time.Millisecond)
	if cb.State() != HalfOpen {
		t.Fatal("expected half-open")
	}
	cb.RecordFailure()
	if cb.State() != Open {
		t.Fatal("a half-open failure must reopen the breaker")
	}
}
