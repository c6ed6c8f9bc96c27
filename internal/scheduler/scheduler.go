package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/codes"
	"github.com/icn-network/icn-node/internal/dag"
	"github.com/icn-network/icn-node/internal/ledger"
	"github.com/icn-network/icn-node/internal/network"
	"github.com/icn-network/icn-node/internal/reputation"
)

// Scheduler orchestrates the full mesh job lifecycle: admission and escrow,
// auction, assignment, and idempotent receipt anchoring and settlement into
// the DAG and mana ledger. Grounded on the mana-charging-then-WAL-append
// pattern of
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's
// Transfer/AppendBlock split, generalized to the job pipeline.
type Scheduler struct {
	queue      *Queue
	window     *Window
	ledger     *ledger.Ledger
	reputation *reputation.Store
	store      dag.SuspendingStore
	weights    SelectionWeights
	clock      clock.Clock

	mu   sync.Mutex
	jobs map[string]*Job // every admitted job, retained for its whole lifetime

	// seenReceipts holds the anchored CID for every (job_id, executor_did)
	// receipt already applied, so a sequential duplicate is a pure read
	// instead of a re-application of reputation/settlement side effects.
	// Keyed alongside mu, not a separate lock: the seen-set and the job
	// record it guards settlement against are updated together.
	seenReceipts map[string]icid.CID

	// receiptGroup collapses duplicate *concurrent* AnchorReceipt calls for
	// the same (job_id, executor_did) into one underlying anchor, using
	// golang.org/x/sync/singleflight. This alone only dedupes calls that
	// overlap in time; seenReceipts is what makes a receipt delivered after
	// the first call already returned a no-op too (spec.md §4.6
	// "Idempotency", invariant 8).
	receiptGroup singleflight.Group
}

// New builds a Scheduler wired to a ledger (for escrow and settlement), a
// reputation store (for bid scoring and execution outcomes), a DAG store
// (for receipt anchoring), and an auction window.
func New(led *ledger.Ledger, rep *reputation.Store, store dag.SuspendingStore, net network.Service, bidWindow time.Duration) *Scheduler {
	return &Scheduler{
		queue:        NewQueue(),
		window:       NewWindow(net, bidWindow),
		ledger:       led,
		reputation:   rep,
		store:        store,
		weights:      DefaultSelectionWeights,
		clock:        clock.New(),
		jobs:         make(map[string]*Job),
		seenReceipts: make(map[string]icid.CID),
	}
}

// SetWeights overrides the selection weights used by RunAuction, letting a
// node operator tune price/reputation/load priority via configuration
// instead of a compiled-in constant (spec.md §9's open question).
func (s *Scheduler) SetWeights(w SelectionWeights) { s.weights = w }

func receiptKey(jobID, executor string) string { return jobID + "|" + executor }

// SubmitJob admits a job, escrowing spec.CostMana from submitter's balance
// (spec.md §4.6 admission steps 2-3: check balance, then debit as escrow).
// The escrow is held against the job record, not spent, until AnchorReceipt
// settles it or a failure path refunds it in full.
func (s *Scheduler) SubmitJob(ctx context.Context, submitter string, spec JobSpec, priority int) (Job, error) {
	scheduleMeshJobCalls.Inc()
	if err := s.ledger.Debit(ctx, submitter, spec.CostMana); err != nil {
		return Job{}, codes.Wrap(codes.InsufficientMana, "submit_job: escrow cost_mana", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Submitter: submitter,
		Spec:      spec,
		CostMana:  spec.CostMana,
		Status:    StatusSubmitted,
	}
	s.mu.Lock()
	tracked := job
	s.jobs[job.ID] = &tracked
	s.mu.Unlock()

	s.queue.Push(priority, job)
	return job, nil
}

// RunAuction pops the next queued job (if any) and runs a bounded-window
// bid auction among candidates, returning the winning assignment.
// Candidates are enriched with each executor's current reputation score
// before selection. An empty queue is reported as (false, nil) — there is
// simply nothing to do, not a failure. A non-empty queue with no valid bids
// is a job outcome, not an error: the job transitions to Failed(NoBidders)
// and its escrow is refunded in full (spec.md §4.6 "Executor selection").
func (s *Scheduler) RunAuction(ctx context.Context, candidates []string) (JobAssignment, bool, error) {
	job, ok := s.queue.Pop()
	if !ok {
		return JobAssignment{}, false, nil
	}

	bids, err := s.window.Collect(ctx, job, candidates)
	if err != nil {
		return JobAssignment{}, false, err
	}
	for i := range bids {
		if score, err := s.reputation.Score(ctx, bids[i].Executor); err == nil {
			bids[i].Reputation = score
		}
	}

	winner, found := SelectExecutor(bids, job.Spec.MaxPriceMana, s.weights)
	if !found {
		if err := s.failJob(ctx, job.ID, job.Submitter, job.CostMana, FailureNoBidders); err != nil {
			return JobAssignment{}, false, err
		}
		return JobAssignment{}, false, nil
	}

	finalPrice := winner.PriceMana
	if finalPrice > job.CostMana {
		// The auction can never settle more than was escrowed; a bid above
		// cost_mana should already have been excluded by MaxPriceMana, but
		// clamp defensively rather than let settlement underflow.
		finalPrice = job.CostMana
	}

	s.mu.Lock()
	if tracked, ok := s.jobs[job.ID]; ok {
		tracked.Status = StatusAssigned
		tracked.Executor = winner.Executor
		tracked.FinalPriceMana = finalPrice
	}
	s.mu.Unlock()

	if job.Spec.MaxExecutionWaitMS > 0 {
		s.startTimeoutTimer(job.ID, time.Duration(job.Spec.MaxExecutionWaitMS)*time.Millisecond)
	}

	return JobAssignment{JobID: job.ID, Executor: winner.Executor, PriceMana: finalPrice}, true, nil
}

// startTimeoutTimer fails job.ID with Failed(Timeout) if no receipt settles
// it before wait elapses (spec.md §4.6 "Timeout"): the assigned executor's
// reputation is penalized and the submitter is refunded in full. A receipt
// that settles the job first (moving it out of StatusAssigned) makes the
// timer a no-op.
func (s *Scheduler) startTimeoutTimer(jobID string, wait time.Duration) {
	timer := s.clock.Timer(wait)
	go func() {
		<-timer.C
		s.handleTimeout(jobID)
	}()
}

// handleTimeout applies the Failed(Timeout) transition: full refund to the
// submitter plus a reputation penalty against the assigned executor. Split
// out of startTimeoutTimer's goroutine so the transition logic itself can
// be exercised deterministically without depending on goroutine scheduling
// around a fired clock.Timer.
func (s *Scheduler) handleTimeout(jobID string) {
	s.mu.Lock()
	tracked, ok := s.jobs[jobID]
	if !ok || tracked.Status != StatusAssigned {
		s.mu.Unlock()
		return
	}
	submitter, costMana, executor := tracked.Submitter, tracked.CostMana, tracked.Executor
	s.mu.Unlock()

	ctx := context.Background()
	if err := s.failJob(ctx, jobID, submitter, costMana, FailureTimeout); err != nil {
		return
	}
	_ = s.reputation.RecordExecution(ctx, executor, false, 0)
}

// failJob transitions a tracked job to Failed for reason and refunds
// refundMana to submitter. Called from both the no-bidders auction outcome
// and the timeout path, the two places spec.md §4.6 requires a full refund
// outside of normal receipt settlement.
func (s *Scheduler) failJob(ctx context.Context, jobID, submitter string, refundMana uint64, reason FailureReason) error {
	s.mu.Lock()
	if tracked, ok := s.jobs[jobID]; ok {
		tracked.Status = StatusFailed
		tracked.FailureReason = reason
	}
	s.mu.Unlock()

	if refundMana == 0 {
		return nil
	}
	if err := s.ledger.Credit(ctx, submitter, refundMana); err != nil {
		return codes.Wrap(codes.InternalError, "refund escrow", err)
	}
	return nil
}

// AnchorReceipt records a completed job's execution receipt into the DAG
// store, updates reputation, and settles escrow. Receipts are keyed by
// (job_id, executor_did): concurrent duplicate calls collapse into one
// anchor via singleflight, and a duplicate delivered after the first call
// already returned is caught by seenReceipts, so applying the same receipt
// twice only ever changes state once (spec.md §4.6 "Idempotency", §8
// invariant 8).
func (s *Scheduler) AnchorReceipt(ctx context.Context, receipt ExecutionReceipt, latencyMS uint64) (icid.CID, error) {
	key := receiptKey(receipt.JobID, receipt.Executor)

	v, err, _ := s.receiptGroup.Do(key, func() (interface{}, error) {
		s.mu.Lock()
		if cached, ok := s.seenReceipts[key]; ok {
			s.mu.Unlock()
			return cached, nil
		}
		s.mu.Unlock()

		links := []icid.DagLink{{CID: receipt.ResultCID, Name: "result", Size: 0}}
		block := dag.NewBlock(
			[]byte(fmt.Sprintf("receipt:%s:%s:%v", receipt.JobID, receipt.Executor, receipt.Success)),
			links, uint64(s.clock.Now().UTC().Unix()), receipt.Executor, receipt.Signature, "",
		)
		if err := s.store.Put(ctx, block); err != nil {
			return icid.Undef, err
		}
		if err := s.reputation.RecordExecution(ctx, receipt.Executor, receipt.Success, latencyMS); err != nil {
			return icid.Undef, err
		}
		if err := s.settle(ctx, receipt); err != nil {
			return icid.Undef, err
		}

		s.mu.Lock()
		s.seenReceipts[key] = block.CID
		s.mu.Unlock()
		return block.CID, nil
	})
	if err != nil {
		return icid.Undef, err
	}
	return v.(icid.CID), nil
}

// settle applies spec.md §4.6 step 5-6: on success, pay the executor
// final_price and refund cost_mana - final_price to the submitter; on
// failure, the executor is paid nothing and the submitter is refunded in
// full (the "partial payment policy"). A job no longer in StatusAssigned
// (already settled, or already timed out) is left untouched.
func (s *Scheduler) settle(ctx context.Context, receipt ExecutionReceipt) error {
	s.mu.Lock()
	job, ok := s.jobs[receipt.JobID]
	if !ok || job.Status != StatusAssigned {
		s.mu.Unlock()
		return nil
	}
	submitter, costMana, finalPrice := job.Submitter, job.CostMana, job.FinalPriceMana
	s.mu.Unlock()

	if !receipt.Success {
		if err := s.ledger.Credit(ctx, submitter, costMana); err != nil {
			return codes.Wrap(codes.InternalError, "settle: refund submitter on failure", err)
		}
		s.mu.Lock()
		job.Status = StatusFailed
		job.FailureReason = FailureExecution
		s.mu.Unlock()
		return nil
	}

	if err := s.ledger.Credit(ctx, receipt.Executor, finalPrice); err != nil {
		return codes.Wrap(codes.InternalError, "settle: pay executor", err)
	}
	if refund := costMana - finalPrice; refund > 0 {
		if err := s.ledger.Credit(ctx, submitter, refund); err != nil {
			return codes.Wrap(codes.InternalError, "settle: refund submitter", err)
		}
	}
	s.mu.Lock()
	job.Status = StatusCompleted
	s.mu.Unlock()
	return nil
}

// GetJob returns the tracked state of an admitted job, for callers (CLI,
// tests) that need to observe status/settlement outside the ABI surface.
func (s *Scheduler) GetJob(jobID string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// PendingJobs reports the number of jobs currently queued.
func (s *Scheduler) PendingJobs() int { return s.queue.Len() }
