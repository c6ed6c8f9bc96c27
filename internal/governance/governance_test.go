package governance

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/icn-network/icn-node/internal/eventstore"
	"github.com/icn-network/icn-node/internal/ledger"
)

func newTestEngine(t *testing.T) (*Engine, *clock.Mock) {
	t.Helper()
	ctx := context.Background()
	led, err := ledger.New(ctx, eventstore.NewMemory[ledger.Event]())
	if err != nil {
		t.Fatal(err)
	}
	for _, acct := range []string{"alice", "bob", "carol", "dave"} {
		if err := led.SetBalance(ctx, acct, 1000); err != nil {
			t.Fatal(err)
		}
	}
	e, err := New(ctx, eventstore.NewMemory[GovernanceEvent](), led)
	if err != nil {
		t.Fatal(err)
	}
	mock := clock.NewMock()
	e.SetClock(mock)
	e.SetVotingDuration(time.Hour)
	return e, mock
}

func TestProposalLifecycleCustomQuorumAndThreshold(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "raise mesh job fee", 2, 0.75, 0)
	if err != nil {
		t.Fatalf("SubmitProposal: %v", err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatalf("OpenVoting: %v", err)
	}

	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "carol", VoteYes); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "dave", VoteNo); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour)

	// 2 for, 1 against: 2/3 = 0.667, below the 0.75 threshold -> rejected,
	// even though quorum (2) was met.
	state, err := e.CloseVotingPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateRejected {
		t.Fatalf("expected rejection below threshold, got %s", state)
	}
}

func TestProposalAcceptedAboveThresholdThenExecutes(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "enable federation sync", 2, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "carol", VoteYes); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour)

	state, err := e.CloseVotingPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateAccepted {
		t.Fatalf("expected acceptance, got %s", state)
	}

	executed := false
	if err := e.ExecuteProposal(ctx, id, func() error { executed = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !executed {
		t.Fatal("expected execFn to run")
	}
	p, ok := e.Get(id)
	if !ok || p.State != StateExecuted {
		t.Fatalf("expected proposal in Executed state, got %+v ok=%v", p, ok)
	}
}

func TestVotesBelowQuorumAreRejectedRegardlessOfRatio(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "tiny change", 3, 0.1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour)

	state, err := e.CloseVotingPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateRejected {
		t.Fatalf("expected rejection below quorum, got %s", state)
	}
}

func TestAbstainCountsTowardQuorumNotThreshold(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "adopt new scoring weights", 3, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}
	// 1 yes, 0 no, 2 abstain: quorum (3) is met by Y+N+A, and the
	// yes/no ratio 1/1 = 1.0 clears the 0.5 threshold since abstentions
	// are excluded from that ratio entirely.
	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "carol", VoteAbstain); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "dave", VoteAbstain); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour)

	state, err := e.CloseVotingPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateAccepted {
		t.Fatalf("expected acceptance via abstain-inclusive quorum, got %s", state)
	}
}

func TestCastVoteRejectedOutsideVotingWindow(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "x", 1, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "bob", VoteYes); err == nil {
		t.Fatal("expected vote before OpenVoting to be rejected")
	}
}

func TestCastVoteRejectedAfterDeadline(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "x", 1, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour + time.Second)

	if err := e.CastVote(ctx, id, "bob", VoteYes); err == nil {
		t.Fatal("expected vote after deadline to be rejected")
	}
}

func TestCloseVotingPeriodRejectedBeforeDeadline(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "x", 1, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}

	if _, err := e.CloseVotingPeriod(ctx, id); err == nil {
		t.Fatal("expected close before deadline to be rejected")
	}
}

func TestExecuteProposalHonorsTimelockDelay(t *testing.T) {
	ctx := context.Background()
	e, mock := newTestEngine(t)

	id, err := e.SubmitProposal(ctx, "alice", "delayed change", 1, 0.5, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.OpenVoting(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := e.CastVote(ctx, id, "bob", VoteYes); err != nil {
		t.Fatal(err)
	}

	mock.Add(time.Hour)
	state, err := e.CloseVotingPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateAccepted {
		t.Fatalf("expected acceptance, got %s", state)
	}

	if err := e.ExecuteProposal(ctx, id, func() error { return nil }); err == nil {
		t.Fatal("expected execute before timelock elapses to be rejected")
	}

	mock.Add(30 * time.Minute)
	if err := e.ExecuteProposal(ctx, id, func() error { return nil }); err != nil {
		t.Fatalf("expected execute after timelock elapses to succeed: %v", err)
	}
}
