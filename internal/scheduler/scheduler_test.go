package scheduler

import (
	"context"
	"testing"
	"time"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/dag"
	"github.com/icn-network/icn-node/internal/eventstore"
	"github.com/icn-network/icn-node/internal/ledger"
	"github.com/icn-network/icn-node/internal/reputation"
)

func TestSelectExecutorDeterministic(t *testing.T) {
	bids := []Bid{
		{JobID: "j1", Executor: "exec-a", PriceMana: 10, Reputation: 5, Load: 2},
		{JobID: "j1", Executor: "exec-b", PriceMana: 8, Reputation: 3, Load: 1},
		{JobID: "j1", Executor: "exec-c", PriceMana: 10, Reputation: 5, Load: 2},
	}
	w1, ok1 := SelectExecutor(bids, 20, DefaultSelectionWeights)
	w2, ok2 := SelectExecutor(bids, 20, DefaultSelectionWeights)
	if !ok1 || !ok2 {
		t.Fatal("expected a winner")
	}
	if w1.Executor != w2.Executor {
		t.Fatalf("selection must be deterministic: got %s then %s", w1.Executor, w2.Executor)
	}
}

func TestSelectExecutorExcludesOverPriceBids(t *testing.T) {
	bids := []Bid{{JobID: "j1", Executor: "exec-a", PriceMana: 100}}
	_, ok := SelectExecutor(bids, 10, DefaultSelectionWeights)
	if ok {
		t.Fatal("expected bid above max price to be excluded")
	}
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := NewQueue()
	q.Push(1, Job{ID: "a"})
	q.Push(1, Job{ID: "b"})
	q.Push(2, Job{ID: "urgent"})

	first, ok := q.Pop()
	if !ok || first.ID != "urgent" {
		t.Fatalf("expected higher priority tier to drain first, got %+v", first)
	}
	second, ok := q.Pop()
	if !ok || second.ID != "a" {
		t.Fatalf("expected FIFO within tier, got %+v", second)
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, context.Context) {
	t.Helper()
	ctx := context.Background()
	led, err := ledger.New(ctx, eventstore.NewMemory[ledger.Event]())
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetBalance(ctx, "submitter", 1000); err != nil {
		t.Fatal(err)
	}
	rep := reputation.New(eventstore.NewMemory[reputation.Event]())
	store := dag.SyncAdapter{Store: dag.NewMemory()}
	return New(led, rep, store, nil, time.Second), ctx
}

func TestSubmitJobEscrowsCostMana(t *testing.T) {
	s, ctx := newTestScheduler(t)
	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 40}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatal("expected a generated job ID")
	}
	if s.PendingJobs() != 1 {
		t.Fatalf("expected 1 pending job, got %d", s.PendingJobs())
	}
	bal, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 960 {
		t.Fatalf("expected escrow to debit 40 mana (balance 960), got %d", bal)
	}
	tracked, ok := s.GetJob(job.ID)
	if !ok || tracked.Status != StatusSubmitted || tracked.CostMana != 40 {
		t.Fatalf("expected tracked job Submitted with 40 escrowed, got %+v ok=%v", tracked, ok)
	}
}

func TestSubmitJobInsufficientBalanceIsRejected(t *testing.T) {
	s, ctx := newTestScheduler(t)
	if _, err := s.SubmitJob(ctx, "submitter", JobSpec{CostMana: 10000}, 0); err == nil {
		t.Fatal("expected escrow debit above balance to fail")
	}
	if s.PendingJobs() != 0 {
		t.Fatalf("expected no job admitted, got %d pending", s.PendingJobs())
	}
}

func TestAnchorReceiptIsIdempotent(t *testing.T) {
	s, ctx := newTestScheduler(t)
	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 50}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.queue.Pop(); !ok {
		t.Fatal("expected the submitted job to be queued")
	}
	// Take the job off the queue as an auction would, then put it into
	// Assigned state directly so AnchorReceipt has something to settle,
	// matching how a real auction would have left it after a winning bid.
	s.mu.Lock()
	s.jobs[job.ID].Status = StatusAssigned
	s.jobs[job.ID].Executor = "exec-a"
	s.jobs[job.ID].FinalPriceMana = 30
	s.mu.Unlock()

	receipt := ExecutionReceipt{
		JobID: job.ID, Executor: "exec-a",
		ResultCID: icid.NewV1SHA256(icid.CodecRaw, []byte("result")), Success: true,
	}
	c1, err := s.AnchorReceipt(ctx, receipt, 100)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := s.AnchorReceipt(ctx, receipt, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !c1.Equal(c2) {
		t.Fatalf("expected idempotent anchoring to return the same CID, got %s and %s", c1, c2)
	}

	score, err := s.reputation.Score(ctx, "exec-a")
	if err != nil {
		t.Fatal(err)
	}
	if score != 3 {
		t.Fatalf("expected reputation recorded exactly once (score 3), got %d", score)
	}

	execBal, err := s.ledger.GetBalance(ctx, "exec-a")
	if err != nil {
		t.Fatal(err)
	}
	if execBal != 30 {
		t.Fatalf("expected executor settled exactly once (balance 30), got %d", execBal)
	}
	submitterBal, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if submitterBal != 970 { // 1000 - 50 escrow + 20 refund, exactly once
		t.Fatalf("expected submitter refunded exactly once (balance 970), got %d", submitterBal)
	}
}

func TestAnchorReceiptOnFailureRefundsEscrowInFull(t *testing.T) {
	s, ctx := newTestScheduler(t)
	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 50}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.jobs[job.ID].Status = StatusAssigned
	s.jobs[job.ID].Executor = "exec-a"
	s.jobs[job.ID].FinalPriceMana = 30
	s.mu.Unlock()

	receipt := ExecutionReceipt{JobID: job.ID, Executor: "exec-a", Success: false}
	if _, err := s.AnchorReceipt(ctx, receipt, 50); err != nil {
		t.Fatal(err)
	}

	execBal, err := s.ledger.GetBalance(ctx, "exec-a")
	if err != nil {
		t.Fatal(err)
	}
	if execBal != 0 {
		t.Fatalf("expected executor paid nothing on failure, got %d", execBal)
	}
	submitterBal, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if submitterBal != 1000 {
		t.Fatalf("expected submitter refunded in full (balance 1000), got %d", submitterBal)
	}
	tracked, ok := s.GetJob(job.ID)
	if !ok || tracked.Status != StatusFailed || tracked.FailureReason != FailureExecution {
		t.Fatalf("expected job Failed(execution_failed), got %+v ok=%v", tracked, ok)
	}
}

func TestRunAuctionNoBiddersFailsJobAndRefundsEscrow(t *testing.T) {
	s, ctx := newTestScheduler(t)
	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 50}, 0)
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.RunAuction(ctx, nil)
	if err != nil {
		t.Fatalf("expected no-bidders to be a normal outcome, not an error: %v", err)
	}
	if ok {
		t.Fatal("expected no assignment when there are no candidates")
	}

	tracked, found := s.GetJob(job.ID)
	if !found || tracked.Status != StatusFailed || tracked.FailureReason != FailureNoBidders {
		t.Fatalf("expected job Failed(no_bidders), got %+v found=%v", tracked, found)
	}
	bal, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 1000 {
		t.Fatalf("expected escrow refunded in full (balance 1000), got %d", bal)
	}
}

func TestRunAuctionOnEmptyQueueIsNotAnError(t *testing.T) {
	s, ctx := newTestScheduler(t)
	_, ok, err := s.RunAuction(ctx, []string{"exec-a"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no assignment from an empty queue")
	}
}

func TestAssignedJobTimesOutAndRefundsEscrow(t *testing.T) {
	s, ctx := newTestScheduler(t)

	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 50, MaxExecutionWaitMS: 10}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.jobs[job.ID].Status = StatusAssigned
	s.jobs[job.ID].Executor = "exec-a"
	s.jobs[job.ID].FinalPriceMana = 30
	s.mu.Unlock()

	// Exercise the timeout transition directly rather than via the real
	// timer goroutine: deterministic, and it is the transition spec.md
	// §4.6's "Timeout" describes, not the goroutine scheduling around it.
	s.handleTimeout(job.ID)

	tracked, _ := s.GetJob(job.ID)
	if tracked.FailureReason != FailureTimeout {
		t.Fatalf("expected Failed(timeout), got %+v", tracked)
	}
	bal, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 1000 {
		t.Fatalf("expected full refund on timeout (balance 1000), got %d", bal)
	}
	score, err := s.reputation.Score(ctx, "exec-a")
	if err != nil {
		t.Fatal(err)
	}
	if score != 0 {
		t.Fatalf("expected timeout to penalize reputation (floored at 0), got %d", score)
	}
}

func TestReceiptAfterTimeoutDoesNotDoubleSettle(t *testing.T) {
	s, ctx := newTestScheduler(t)
	job, err := s.SubmitJob(ctx, "submitter", JobSpec{MaxPriceMana: 50, CostMana: 50}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.jobs[job.ID].Status = StatusAssigned
	s.jobs[job.ID].Executor = "exec-a"
	s.jobs[job.ID].FinalPriceMana = 30
	s.mu.Unlock()

	s.handleTimeout(job.ID)
	submitterAfterTimeout, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}

	receipt := ExecutionReceipt{JobID: job.ID, Executor: "exec-a", Success: true}
	if _, err := s.AnchorReceipt(ctx, receipt, 10); err != nil {
		t.Fatal(err)
	}

	execBal, err := s.ledger.GetBalance(ctx, "exec-a")
	if err != nil {
		t.Fatal(err)
	}
	if execBal != 0 {
		t.Fatalf("expected a late receipt after timeout to pay the executor nothing, got %d", execBal)
	}
	submitterAfterReceipt, err := s.ledger.GetBalance(ctx, "submitter")
	if err != nil {
		t.Fatal(err)
	}
	if submitterAfterReceipt != submitterAfterTimeout {
		t.Fatalf("expected a late receipt not to refund the submitter a second time: before=%d after=%d", submitterAfterTimeout, submitterAfterReceipt)
	}
}

func TestMatchUnfilledRequestsRespectsCapacityAndScope(t *testing.T) {
	templates := []JobTemplate{
		{ExecutorDID: "exec-a", MaxPriceMana: 100, Scope: "federation", Capacity: 1},
	}
	requests := []AidRequest{
		{ID: "r1", Spec: JobSpec{MaxPriceMana: 50, Scope: "federation"}},
		{ID: "r2", Spec: JobSpec{MaxPriceMana: 50, Scope: "federation"}},
		{ID: "r3", Spec: JobSpec{MaxPriceMana: 50, Scope: "cooperative"}},
	}
	matches := MatchUnfilledRequests(requests, templates)
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match (capacity 1, scope-filtered), got %d", len(matches))
	}
	if matches[0].Request.ID != "r1" {
		t.Fatalf("expected first eligible request to match, got %s", matches[0].Request.ID)
	}
}
