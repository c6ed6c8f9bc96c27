// Package reputation tracks each executor's track record as an
// event-sourced score: execution outcomes and proof outcomes each apply a
// deterministic point delta, floored at zero. Grounded on the same
// event-log shape as internal/ledger (itself grounded on
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go) and on
// _examples/original_source crates/icn-reputation's scoring policy and
// metrics.
package reputation

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/icn-network/icn-node/internal/eventstore"
)

// Outcome tags what a reputation event records.
type Outcome string

const (
	ExecutionSuccess Outcome = "execution_success"
	ExecutionFailure Outcome = "execution_failure"
	ProofSuccess     Outcome = "proof_success"
	ProofFailure     Outcome = "proof_failure"
)

// Event is one recorded reputation-affecting outcome for an executor.
type Event struct {
	Executor  string  `json:"executor"`
	Outcome   Outcome `json:"outcome"`
	LatencyMS uint64  `json:"latency_ms,omitempty"`
}

// scoring constants per the reference policy: execution success is worth
// more than proof success since it carries resource cost; an execution
// failure costs less than an execution success earns, so one bad run
// doesn't wipe out a long good streak, while a proof failure costs as much
// as a proof success earns.
const (
	executionSuccessBase   = 2
	executionFailurePoints = 1
	proofSuccessPoints     = 1
	proofFailurePoints     = 1
	// latencyBonusThresholdMS below which an execution earns one extra
	// point for being fast.
	latencyBonusThresholdMS = 200
)

var (
	executionRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icn_reputation_execution_records_total",
		Help: "Count of execution outcomes recorded, by outcome.",
	}, []string{"outcome"})
	proofAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icn_reputation_proof_attempts_total",
		Help: "Count of proof verification outcomes recorded, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(executionRecords, proofAttempts)
}

// Store tracks per-executor reputation scores derived from an event log.
type Store struct {
	mu     sync.Mutex
	events eventstore.Store[Event]
}

// New wraps an event store as a reputation Store.
func New(store eventstore.Store[Event]) *Store {
	return &Store{events: store}
}

// RecordExecution appends an execution outcome event and updates metrics.
func (s *Store) RecordExecution(ctx context.Context, executor string, success bool, latencyMS uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := ExecutionFailure
	if success {
		outcome = ExecutionSuccess
	}
	executionRecords.WithLabelValues(string(outcome)).Inc()
	return s.events.Append(ctx, Event{Executor: executor, Outcome: outcome, LatencyMS: latencyMS})
}

// RecordProof appends a proof verification outcome event and updates
// metrics.
func (s *Store) RecordProof(ctx context.Context, executor string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := ProofFailure
	if success {
		outcome = ProofSuccess
	}
	proofAttempts.WithLabelValues(string(outcome)).Inc()
	return s.events.Append(ctx, Event{Executor: executor, Outcome: outcome})
}

// Score folds an executor's event history into a single non-negative
// reputation score.
func (s *Store) Score(ctx context.Context, executor string) (uint64, error) {
	history, err := s.events.Query(ctx)
	if err != nil {
		return 0, err
	}
	var score int64
	for _, e := range history {
		if e.Executor != executor {
			continue
		}
		switch e.Outcome {
		case ExecutionSuccess:
			score += executionSuccessBase
			if e.LatencyMS > 0 && e.LatencyMS < latencyBonusThresholdMS {
				score++
			}
		case ExecutionFailure:
			score -= executionFailurePoints
		case ProofSuccess:
			score += proofSuccessPoints
		case ProofFailure:
			score -= proofFailurePoints
		}
		if score < 0 {
			score = 0
		}
	}
	return uint64(score), nil
}

// Close releases the underlying event store.
func (s *Store) Close() error { return s.events.Close() }
