package reputation

import (
	"context"
	"testing"

	"github.com/icn-network/icn-node/internal/eventstore"
)

func TestScoreFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := New(eventstore.NewMemory[Event]())

	if err := s.RecordExecution(ctx, "node-a", false, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExecution(ctx, "node-a", false, 0); err != nil {
		t.Fatal(err)
	}
	score, err := s.Score(ctx, "node-a")
	if err != nil {
		t.Fatal(err)
	}
	if score != 0 {
		t.Fatalf("expected score floored at 0, got %d", score)
	}
}

func TestScoreAccumulatesSuccessWithLatencyBonus(t *testing.T) {
	ctx := context.Background()
	s := New(eventstore.NewMemory[Event]())

	if err := s.RecordExecution(ctx, "node-a", true, 50); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordProof(ctx, "node-a", true); err != nil {
		t.Fatal(err)
	}
	score, err := s.Score(ctx, "node-a")
	if err != nil {
		t.Fatal(err)
	}
	// base 2 + latency bonus 1 + proof success 1 = 4
	if score != 4 {
		t.Fatalf("expected score 4, got %d", score)
	}
}

func TestScoreIsPerExecutor(t *testing.T) {
	ctx := context.Background()
	s := New(eventstore.NewMemory[Event]())

	if err := s.RecordExecution(ctx, "node-a", true, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExecution(ctx, "node-b", false, 0); err != nil {
		t.Fatal(err)
	}
	scoreA, err := s.Score(ctx, "node-a")
	if err != nil {
		t.Fatal(err)
	}
	scoreB, err := s.Score(ctx, "node-b")
	if err != nil {
		t.Fatal(err)
	}
	if scoreA != 2 || scoreB != 0 {
		t.Fatalf("expected scoreA=2 scoreB=0, got %d %d", scoreA, scoreB)
	}
}
