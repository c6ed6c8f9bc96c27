package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/icn-network/icn-node/internal/codes"
	"github.com/icn-network/icn-node/internal/eventstore"
)

func TestBalancePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.log")

	store1, err := eventstore.OpenFile[Event](path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	l1, err := New(ctx, store1)
	if err != nil {
		t.Fatal(err)
	}
	if err := l1.SetBalance(ctx, "alice", 10); err != nil {
		t.Fatal(err)
	}
	if err := l1.Credit(ctx, "alice", 5); err != nil {
		t.Fatal(err)
	}
	if err := l1.Debit(ctx, "alice", 3); err != nil {
		t.Fatal(err)
	}
	if err := l1.Close(); err != nil {
		t.Fatal(err)
	}

	store2, err := eventstore.OpenFile[Event](path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store2.Close()
	l2, err := New(ctx, store2)
	if err != nil {
		t.Fatal(err)
	}

	bal, err := l2.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 12 {
		t.Fatalf("expected balance 12 after reopen, got %d", bal)
	}

	history, err := l2.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantKinds := []EventKind{EventSetBalance, EventCredit, EventDebit}
	if len(history) != len(wantKinds) {
		t.Fatalf("expected %d events, got %d", len(wantKinds), len(history))
	}
	for i, k := range wantKinds {
		if history[i].Kind != k {
			t.Fatalf("event %d: want kind %s, got %s", i, k, history[i].Kind)
		}
	}
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l, err := New(ctx, eventstore.NewMemory[Event]())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Credit(ctx, "bob", 5); err != nil {
		t.Fatal(err)
	}
	err = l.Debit(ctx, "bob", 10)
	if !codes.Is(err, codes.InsufficientMana) {
		t.Fatalf("expected InsufficientMana, got %v", err)
	}
	bal, err := l.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 5 {
		t.Fatalf("failed debit must not change balance, got %d", bal)
	}
}

func TestCreditAllRegeneratesEveryKnownAccount(t *testing.T) {
	ctx := context.Background()
	l, err := New(ctx, eventstore.NewMemory[Event]())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(ctx, "alice", 0); err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}
	if err := l.CreditAll(ctx, 7); err != nil {
		t.Fatal(err)
	}
	for _, acct := range []string{"alice", "bob"} {
		bal, err := l.GetBalance(ctx, acct)
		if err != nil {
			t.Fatal(err)
		}
		if bal != 7 {
			t.Fatalf("%s: expected balance 7 after credit_all, got %d", acct, bal)
		}
	}
}

func TestExplorerExcludesSetBalanceFromFlows(t *testing.T) {
	ctx := context.Background()
	l, err := New(ctx, eventstore.NewMemory[Event]())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.SetBalance(ctx, "alice", 100); err != nil {
		t.Fatal(err)
	}
	if err := l.Credit(ctx, "alice", 10); err != nil {
		t.Fatal(err)
	}
	if err := l.Debit(ctx, "alice", 4); err != nil {
		t.Fatal(err)
	}

	stats, err := NewExplorer(l).StatsFor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inflow != 10 || stats.Outflow != 4 {
		t.Fatalf("unexpected flow stats: %+v", stats)
	}
}
