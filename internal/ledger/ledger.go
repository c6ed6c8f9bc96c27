// Package ledger implements the event-sourced mana economy: every balance
// change is recorded as an append-only Event, and the current balance of
// any account is the left fold of its events. Grounded on
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's Transfer/
// Mint/Burn accounting style (state mutated through named operations logged
// to a WAL) and on _examples/original_source crates/icn-economics's
// ManaLedger trait and explorer.rs aggregation.
package ledger

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/icn-network/icn-node/internal/codes"
	"github.com/icn-network/icn-node/internal/eventstore"
)

// EventKind tags a ledger event's operation.
type EventKind string

const (
	EventSetBalance EventKind = "set_balance"
	EventCredit     EventKind = "credit"
	EventDebit      EventKind = "debit"
)

// Event is one recorded mutation against a single account's balance.
type Event struct {
	Kind    EventKind `json:"kind"`
	Account string    `json:"account"`
	Amount  uint64    `json:"amount"`
}

// Ledger is a mana account ledger backed by an event log. Balances are
// never stored directly; GetBalance always folds the event history, so the
// log is the single source of truth (spec.md's "balance = left fold of
// events" invariant).
type Ledger struct {
	mu     sync.Mutex
	events eventstore.Store[Event]
	known  map[string]struct{} // accounts ever mentioned, for CreditAll
}

// New wraps an event store as a Ledger, replaying its history to seed the
// known-accounts set.
func New(ctx context.Context, store eventstore.Store[Event]) (*Ledger, error) {
	l := &Ledger{events: store, known: make(map[string]struct{})}
	history, err := store.Query(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range history {
		l.known[e.Account] = struct{}{}
	}
	return l, nil
}

// GetBalance folds the full event history for account into a balance.
// Unknown accounts have balance zero.
func (l *Ledger) GetBalance(ctx context.Context, account string) (uint64, error) {
	history, err := l.events.Query(ctx)
	if err != nil {
		return 0, err
	}
	return foldBalance(history, account), nil
}

// History returns every event recorded so far, in append order.
func (l *Ledger) History(ctx context.Context) ([]Event, error) {
	return l.events.Query(ctx)
}

func foldBalance(history []Event, account string) uint64 {
	var bal uint64
	for _, e := range history {
		if e.Account != account {
			continue
		}
		switch e.Kind {
		case EventSetBalance:
			bal = e.Amount
		case EventCredit:
			bal += e.Amount
		case EventDebit:
			if e.Amount > bal {
				bal = 0
			} else {
				bal -= e.Amount
			}
		}
	}
	return bal
}

// SetBalance records an absolute balance assignment, overriding history for
// subsequent folds (used for genesis allotments and admin corrections).
func (l *Ledger) SetBalance(ctx context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known[account] = struct{}{}
	return l.events.Append(ctx, Event{Kind: EventSetBalance, Account: account, Amount: amount})
}

// Credit adds amount to account's balance.
func (l *Ledger) Credit(ctx context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known[account] = struct{}{}
	return l.events.Append(ctx, Event{Kind: EventCredit, Account: account, Amount: amount})
}

// Debit subtracts amount from account's balance. Fails with
// codes.InsufficientMana if the current balance is lower than amount;
// spending decisions must check this before committing side effects.
func (l *Ledger) Debit(ctx context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.events.Query(ctx)
	if err != nil {
		return err
	}
	bal := foldBalance(history, account)
	if bal < amount {
		return codes.New(codes.InsufficientMana, "debit exceeds balance")
	}
	l.known[account] = struct{}{}
	return l.events.Append(ctx, Event{Kind: EventDebit, Account: account, Amount: amount})
}

// CreditAll credits amount to every account ever mentioned in the ledger's
// history, including ones currently at zero balance — the regeneration
// pass run on a schedule per spec.md, grounded on icn-economics's
// credit_all semantics (regenerate every known account, not just active
// ones).
func (l *Ledger) CreditAll(ctx context.Context, amount uint64) error {
	l.mu.Lock()
	accounts := make([]string, 0, len(l.known))
	for acct := range l.known {
		accounts = append(accounts, acct)
	}
	l.mu.Unlock()

	var errs error
	for _, acct := range accounts {
		if err := l.Credit(ctx, acct, amount); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	logrus.WithFields(logrus.Fields{"accounts": len(accounts), "amount": amount}).Info("ledger: credit_all regeneration pass complete")
	return errs
}

// Close releases the underlying event store.
func (l *Ledger) Close() error { return l.events.Close() }
