package ledger

import "context"

// FlowStats summarizes an account's credit/debit activity over the ledger's
// recorded history, mirroring _examples/original_source
// crates/icn-economics/src/explorer.rs's FlowStats.
type FlowStats struct {
	Inflow  uint64
	Outflow uint64
}

// Net returns Inflow minus Outflow as a signed value; it is negative when
// the account's recorded outflow exceeds its inflow.
func (f FlowStats) Net() int64 { return int64(f.Inflow) - int64(f.Outflow) }

// Explorer computes aggregate flow statistics over a Ledger's event log
// without mutating it, for reporting/dashboard use.
type Explorer struct {
	ledger *Ledger
}

// NewExplorer wraps a Ledger for read-only flow analysis.
func NewExplorer(l *Ledger) *Explorer { return &Explorer{ledger: l} }

// StatsFor returns the FlowStats for a single account. SetBalance events
// are excluded from the aggregation (they are corrections/genesis
// allotments, not flows), matching explorer.rs's aggregated_flows.
func (e *Explorer) StatsFor(ctx context.Context, account string) (FlowStats, error) {
	history, err := e.ledger.History(ctx)
	if err != nil {
		return FlowStats{}, err
	}
	var stats FlowStats
	for _, ev := range history {
		if ev.Account != account {
			continue
		}
		switch ev.Kind {
		case EventCredit:
			stats.Inflow += ev.Amount
		case EventDebit:
			stats.Outflow += ev.Amount
		}
	}
	return stats, nil
}

// AggregatedFlows returns FlowStats per account across the entire event
// log in one pass.
func (e *Explorer) AggregatedFlows(ctx context.Context) (map[string]FlowStats, error) {
	history, err := e.ledger.History(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]FlowStats)
	for _, ev := range history {
		s := out[ev.Account]
		switch ev.Kind {
		case EventCredit:
			s.Inflow += ev.Amount
		case EventDebit:
			s.Outflow += ev.Amount
		}
		out[ev.Account] = s
	}
	return out, nil
}
