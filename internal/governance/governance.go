// Package governance implements the proposal lifecycle state machine:
// Deliberation -> VotingOpen -> Accepted/Rejected -> Executed/Failed.
// Grounded on _examples/orbas1-Synnergy/synnergy-network/core/governance.go's
// ProposeChange/CastVote/ExecuteProposal flow (quorum/threshold evaluation,
// zap logging), made event-sourced per
// _examples/original_source crates/icn-governance's proposal lifecycle, and
// charging PROPOSAL_COST_MANA / VOTE_COST_MANA through internal/ledger.
package governance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/codes"
	"github.com/icn-network/icn-node/internal/eventstore"
	"github.com/icn-network/icn-node/internal/ledger"
)

// State is a proposal's position in the lifecycle.
type State string

const (
	StateDeliberation State = "deliberation"
	StateVotingOpen   State = "voting_open"
	StateAccepted     State = "accepted"
	StateRejected     State = "rejected"
	StateExecuted     State = "executed"
	StateFailed       State = "failed"
)

// VoteOption is a member's choice on a proposal. Abstain counts toward
// quorum but is excluded from the threshold ratio (spec.md §4.5's tally
// rule): a member can signal participation without taking a side.
type VoteOption string

const (
	VoteYes     VoteOption = "yes"
	VoteNo      VoteOption = "no"
	VoteAbstain VoteOption = "abstain"
)

func (o VoteOption) valid() bool {
	switch o {
	case VoteYes, VoteNo, VoteAbstain:
		return true
	default:
		return false
	}
}

// Mana costs charged against the proposer/voter account, grounded on
// icn-governance's fee schedule.
const (
	ProposalCostMana uint64 = 50
	VoteCostMana     uint64 = 1

	// DefaultVotingDuration is how long a proposal's voting window stays
	// open after OpenVoting, absent an operator override via
	// SetVotingDuration.
	DefaultVotingDuration = 72 * time.Hour
)

// Proposal is the materialized view of a proposal's current state, derived
// by folding its GovernanceEvent history.
type Proposal struct {
	ID          string
	Creator     string
	Description string
	State       State
	Votes       map[string]VoteOption // one entry per voter, last-writer-wins
	Quorum      int                   // minimum number of votes cast (Y+N+A)
	Threshold   float64               // fraction of Y among Y+N required to pass

	VotingDeadline time.Time     // stamped by OpenVoting; zero until then
	AcceptedAt     time.Time     // stamped by CloseVotingPeriod on acceptance
	TimelockDelay  time.Duration // execute_proposal requires now >= AcceptedAt+this
}

// Tally counts the current Yes/No/Abstain votes.
func (p Proposal) Tally() (yes, no, abstain int) {
	for _, opt := range p.Votes {
		switch opt {
		case VoteYes:
			yes++
		case VoteNo:
			no++
		case VoteAbstain:
			abstain++
		}
	}
	return yes, no, abstain
}

// EventKind tags a GovernanceEvent's operation.
type EventKind string

const (
	EventSubmitted       EventKind = "submitted"
	EventVotingOpened    EventKind = "voting_opened"
	EventVoteCast        EventKind = "vote_cast"
	EventVotingClosed    EventKind = "voting_closed"
	EventExecuted        EventKind = "executed"
	EventExecutionFailed EventKind = "execution_failed"
)

// GovernanceEvent is one recorded mutation of a proposal's lifecycle.
type GovernanceEvent struct {
	Kind          EventKind     `json:"kind"`
	ProposalID    string        `json:"proposal_id"`
	Creator       string        `json:"creator,omitempty"`
	Description   string        `json:"description,omitempty"`
	Quorum        int           `json:"quorum,omitempty"`
	Threshold     float64       `json:"threshold,omitempty"`
	TimelockDelay time.Duration `json:"timelock_delay,omitempty"`
	Voter         string        `json:"voter,omitempty"`
	Option        VoteOption    `json:"option,omitempty"`

	// VotingDeadline is stamped on EventVotingOpened (now + duration,
	// computed once at open_voting time so replay never re-derives it from
	// a wall clock). OccurredAt is stamped on EventVotingClosed so an
	// accepted outcome's AcceptedAt is likewise reproducible from the log
	// alone.
	VotingDeadline time.Time `json:"voting_deadline,omitempty"`
	OccurredAt     time.Time `json:"occurred_at,omitempty"`
}

// Engine is the event-sourced governance state machine. Every mutating
// operation appends a GovernanceEvent before updating the in-memory
// projection, so the projection can always be rebuilt from the log alone.
type Engine struct {
	events    eventstore.Store[GovernanceEvent]
	ledger    *ledger.Ledger
	proposals map[string]*Proposal
	log       *zap.SugaredLogger
	clock     clock.Clock

	votingDuration time.Duration
}

// New builds an Engine backed by an event store and the mana ledger used to
// charge proposal/vote costs. It replays store's history to seed the
// projection.
func New(ctx context.Context, store eventstore.Store[GovernanceEvent], led *ledger.Ledger) (*Engine, error) {
	e := &Engine{
		events:         store,
		ledger:         led,
		proposals:      make(map[string]*Proposal),
		log:            zap.L().Sugar(),
		clock:          clock.New(),
		votingDuration: DefaultVotingDuration,
	}
	history, err := store.Query(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range history {
		e.apply(ev)
	}
	return e, nil
}

// SetVotingDuration overrides how long OpenVoting leaves a proposal's
// window open, letting a node operator tune it via configuration instead of
// the compiled-in default.
func (e *Engine) SetVotingDuration(d time.Duration) { e.votingDuration = d }

// SetClock overrides the engine's time source, letting tests inject a
// clock.NewMock() to exercise deadline/timelock transitions deterministically
// (the same injection point internal/resilience's CircuitBreaker uses).
func (e *Engine) SetClock(c clock.Clock) { e.clock = c }

func (e *Engine) apply(ev GovernanceEvent) {
	switch ev.Kind {
	case EventSubmitted:
		e.proposals[ev.ProposalID] = &Proposal{
			ID: ev.ProposalID, Creator: ev.Creator, Description: ev.Description,
			State: StateDeliberation, Votes: make(map[string]VoteOption),
			Quorum: ev.Quorum, Threshold: ev.Threshold, TimelockDelay: ev.TimelockDelay,
		}
	case EventVotingOpened:
		if p, ok := e.proposals[ev.ProposalID]; ok {
			p.State = StateVotingOpen
			p.VotingDeadline = ev.VotingDeadline
		}
	case EventVoteCast:
		if p, ok := e.proposals[ev.ProposalID]; ok {
			p.Votes[ev.Voter] = ev.Option
		}
	case EventVotingClosed:
		if p, ok := e.proposals[ev.ProposalID]; ok {
			p.State = outcomeState(p)
			if p.State == StateAccepted {
				p.AcceptedAt = ev.OccurredAt
			}
		}
	case EventExecuted:
		if p, ok := e.proposals[ev.ProposalID]; ok {
			p.State = StateExecuted
		}
	case EventExecutionFailed:
		if p, ok := e.proposals[ev.ProposalID]; ok {
			p.State = StateFailed
		}
	}
}

// outcomeState evaluates spec.md §4.5's tally: quorum is checked against
// Y+N+A (abstaining still counts as participation), threshold against
// Y/(Y+N) alone (abstentions don't dilute the yes/no ratio).
func outcomeState(p *Proposal) State {
	yes, no, abstain := p.Tally()
	if yes+no+abstain < p.Quorum {
		return StateRejected
	}
	if yes+no == 0 {
		return StateRejected
	}
	if float64(yes)/float64(yes+no) > p.Threshold {
		return StateAccepted
	}
	return StateRejected
}

// SubmitProposal creates a new proposal in Deliberation, charging the
// creator ProposalCostMana. The proposal ID is the hex SHA-256 of the
// creator, the description and the submission time. timelockDelay may be zero (spec.md §9's open
// question resolves the optional/required ambiguity in favor of a
// zero-value default).
func (e *Engine) SubmitProposal(ctx context.Context, creator, description string, quorum int, threshold float64, timelockDelay time.Duration) (string, error) {
	if err := e.ledger.Debit(ctx, creator, ProposalCostMana); err != nil {
		return "", codes.Wrap(codes.InsufficientMana, "submit_proposal", err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", creator, description, e.clock.Now().UnixNano())))
	id := hex.EncodeToString(sum[:])
	ev := GovernanceEvent{
		Kind: EventSubmitted, ProposalID: id, Creator: creator, Description: description,
		Quorum: quorum, Threshold: threshold, TimelockDelay: timelockDelay,
	}
	if err := e.events.Append(ctx, ev); err != nil {
		return "", err
	}
	e.apply(ev)
	e.log.Infow("governance: proposal submitted", "id", id, "creator", creator)
	return id, nil
}

// OpenVoting transitions a proposal from Deliberation to VotingOpen and
// stamps voting_deadline = now + the engine's configured voting duration.
func (e *Engine) OpenVoting(ctx context.Context, proposalID string) error {
	p, ok := e.proposals[proposalID]
	if !ok {
		return codes.New(codes.NotFound, "open_voting: unknown proposal "+proposalID)
	}
	if p.State != StateDeliberation {
		return codes.New(codes.InvalidArgument, fmt.Sprintf("open_voting: proposal %s is not in deliberation", proposalID))
	}
	ev := GovernanceEvent{Kind: EventVotingOpened, ProposalID: proposalID, VotingDeadline: e.clock.Now().Add(e.votingDuration)}
	if err := e.events.Append(ctx, ev); err != nil {
		return err
	}
	e.apply(ev)
	return nil
}

// CastVote records a vote, charging the voter VoteCostMana. A voter may
// vote more than once; each cast overwrites that voter's prior choice
// (spec.md §4.5 "overwrites prior vote by same voter"). Votes are rejected
// once the voting window has closed, either by deadline (now > deadline) or
// by the proposal no longer being VotingOpen.
func (e *Engine) CastVote(ctx context.Context, proposalID, voter string, option VoteOption) error {
	if !option.valid() {
		return codes.New(codes.InvalidArgument, "cast_vote: unknown vote option "+string(option))
	}
	p, ok := e.proposals[proposalID]
	if !ok {
		return codes.New(codes.NotFound, "cast_vote: unknown proposal "+proposalID)
	}
	if p.State != StateVotingOpen {
		return codes.New(codes.InvalidArgument, fmt.Sprintf("cast_vote: proposal %s is not open for voting", proposalID))
	}
	if e.clock.Now().After(p.VotingDeadline) {
		return codes.New(codes.InvalidArgument, fmt.Sprintf("cast_vote: proposal %s voting window has closed", proposalID))
	}
	if err := e.ledger.Debit(ctx, voter, VoteCostMana); err != nil {
		return codes.Wrap(codes.InsufficientMana, "cast_vote", err)
	}
	ev := GovernanceEvent{Kind: EventVoteCast, ProposalID: proposalID, Voter: voter, Option: option}
	if err := e.events.Append(ctx, ev); err != nil {
		return err
	}
	e.apply(ev)
	return nil
}

// CloseVotingPeriod evaluates quorum and threshold and transitions the
// proposal to Accepted or Rejected. Only valid once the voting deadline has
// actually elapsed (spec.md §4.5 "only when now ≥ deadline"): closing early
// would let whoever calls first lock in a result before every member had a
// chance to vote.
func (e *Engine) CloseVotingPeriod(ctx context.Context, proposalID string) (State, error) {
	p, ok := e.proposals[proposalID]
	if !ok {
		return "", codes.New(codes.NotFound, "close_voting_period: unknown proposal "+proposalID)
	}
	if p.State != StateVotingOpen {
		return "", codes.New(codes.InvalidArgument, fmt.Sprintf("close_voting_period: proposal %s is not open for voting", proposalID))
	}
	now := e.clock.Now()
	if now.Before(p.VotingDeadline) {
		return "", codes.New(codes.InvalidArgument, fmt.Sprintf("close_voting_period: proposal %s voting window has not elapsed", proposalID))
	}
	ev := GovernanceEvent{Kind: EventVotingClosed, ProposalID: proposalID, OccurredAt: now}
	if err := e.events.Append(ctx, ev); err != nil {
		return "", err
	}
	e.apply(ev)
	return e.proposals[proposalID].State, nil
}

// ExecuteProposal applies an accepted proposal's effect via execFn and
// records the outcome. Requires the proposal's timelock_delay to have
// elapsed since acceptance (spec.md §4.5 "now ≥ accepted_at +
// timelock_delay"), which is zero for proposals that never set one.
func (e *Engine) ExecuteProposal(ctx context.Context, proposalID string, execFn func() error) error {
	p, ok := e.proposals[proposalID]
	if !ok {
		return codes.New(codes.NotFound, "execute_proposal: unknown proposal "+proposalID)
	}
	if p.State != StateAccepted {
		return codes.New(codes.InvalidArgument, fmt.Sprintf("execute_proposal: proposal %s was not accepted", proposalID))
	}
	if e.clock.Now().Before(p.AcceptedAt.Add(p.TimelockDelay)) {
		return codes.New(codes.InvalidArgument, fmt.Sprintf("execute_proposal: proposal %s is still timelocked", proposalID))
	}

	var ev GovernanceEvent
	if err := execFn(); err != nil {
		ev = GovernanceEvent{Kind: EventExecutionFailed, ProposalID: proposalID}
		if appendErr := e.events.Append(ctx, ev); appendErr != nil {
			return appendErr
		}
		e.apply(ev)
		return codes.Wrap(codes.InternalError, "execute_proposal", err)
	}
	ev = GovernanceEvent{Kind: EventExecuted, ProposalID: proposalID}
	if err := e.events.Append(ctx, ev); err != nil {
		return err
	}
	e.apply(ev)
	return nil
}

// InsertExternalProposal seeds the projection with a proposal learned from
// a federation peer rather than submitted locally (no mana is charged: the
// cost was already paid on the originating node).
func (e *Engine) InsertExternalProposal(ctx context.Context, id, creator, description string, quorum int, threshold float64, timelockDelay time.Duration) error {
	if _, exists := e.proposals[id]; exists {
		return nil
	}
	ev := GovernanceEvent{
		Kind: EventSubmitted, ProposalID: id, Creator: creator, Description: description,
		Quorum: quorum, Threshold: threshold, TimelockDelay: timelockDelay,
	}
	if err := e.events.Append(ctx, ev); err != nil {
		return err
	}
	e.apply(ev)
	return nil
}

// Get returns the current projection of a proposal.
func (e *Engine) Get(proposalID string) (Proposal, bool) {
	p, ok := e.proposals[proposalID]
	if !ok {
		return Proposal{}, false
	}
	return *p, true
}
