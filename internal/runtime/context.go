package runtime

import (
	"context"
	"time"

	"github.com/icn-network/icn-node/internal/codes"
	"github.com/icn-network/icn-node/internal/dag"
	"github.com/icn-network/icn-node/internal/governance"
	"github.com/icn-network/icn-node/internal/ledger"
	"github.com/icn-network/icn-node/internal/policy"
	"github.com/icn-network/icn-node/internal/reputation"
	"github.com/icn-network/icn-node/internal/scheduler"
)

// ContractExecutor is the external oracle boundary for WASM contract
// execution. spec.md treats WASM execution as a Non-goal: the runtime
// wires host-ABI imports (see wasmhost.go) but never implements gas
// metering or the full sandbox semantics itself.
type ContractExecutor interface {
	Execute(ctx context.Context, wasmCID, inputCID []byte) ([]byte, error)
}

// Context is the composition root: it owns one instance of every subsystem
// and dispatches numbered ABI calls to them. Built via explicit
// constructor injection (no fx/dig container) per DESIGN.md's decision to
// keep the ownership graph readable, following the explicit top-level
// wiring style of
// _examples/orbas1-Synnergy/synnergy-network/cmd/synnergy/main.go.
type Context struct {
	Ledger     *ledger.Ledger
	Reputation *reputation.Store
	DAG        dag.SuspendingStore
	Scheduler  *scheduler.Scheduler
	Governance *governance.Engine
	Policy     policy.Enforcer
	Contracts  ContractExecutor
	ZK         ZKProver

	ActorDID string // the DID this host-ABI surface acts as
}

// NewContext assembles a Context from already-constructed subsystems. A
// nil zk defaults to NoopZKProver; contracts may be nil, in which case
// ExecuteContractWasm fails with InternalError (contract execution is an
// external oracle and has no safe default). The other subsystems are
// used without nil checks.
func NewContext(
	led *ledger.Ledger,
	rep *reputation.Store,
	store dag.SuspendingStore,
	sched *scheduler.Scheduler,
	gov *governance.Engine,
	enforcer policy.Enforcer,
	contracts ContractExecutor,
	zk ZKProver,
	actorDID string,
) *Context {
	if zk == nil {
		zk = NoopZKProver{}
	}
	return &Context{
		Ledger: led, Reputation: rep, DAG: store, Scheduler: sched,
		Governance: gov, Policy: enforcer, Contracts: contracts, ZK: zk,
		ActorDID: actorDID,
	}
}

// GetMana dispatches ABIAccountGetMana.
func (c *Context) GetMana(ctx context.Context, account string) (uint64, error) {
	return c.Ledger.GetBalance(ctx, account)
}

// SpendMana dispatches ABIAccountSpendMana, enforcing policy first.
func (c *Context) SpendMana(ctx context.Context, account string, amount uint64) error {
	if err := c.Policy.Check(policy.ScopeNode, policy.OpSubmitBlock, c.ActorDID); err != nil {
		return err
	}
	return c.Ledger.Debit(ctx, account, amount)
}

// CreditMana dispatches ABIAccountCreditMana.
func (c *Context) CreditMana(ctx context.Context, account string, amount uint64) error {
	return c.Ledger.Credit(ctx, account, amount)
}

// SubmitMeshJob dispatches ABISubmitMeshJob.
func (c *Context) SubmitMeshJob(ctx context.Context, submitter string, spec scheduler.JobSpec) (scheduler.Job, error) {
	if err := c.Policy.Check(policy.ScopeNode, policy.OpSubmitMeshJob, c.ActorDID); err != nil {
		return scheduler.Job{}, err
	}
	return c.Scheduler.SubmitJob(ctx, submitter, spec, 0)
}

// CreateGovernanceProposal dispatches ABICreateGovernanceProposal.
func (c *Context) CreateGovernanceProposal(ctx context.Context, creator, description string, quorum int, threshold float64, timelockDelay time.Duration) (string, error) {
	if err := c.Policy.Check(policy.ScopeFederation, policy.OpProposeGovernance, c.ActorDID); err != nil {
		return "", err
	}
	return c.Governance.SubmitProposal(ctx, creator, description, quorum, threshold, timelockDelay)
}

// OpenGovernanceVoting dispatches ABIOpenGovernanceVoting.
func (c *Context) OpenGovernanceVoting(ctx context.Context, proposalID string) error {
	return c.Governance.OpenVoting(ctx, proposalID)
}

// CastGovernanceVote dispatches ABICastGovernanceVote.
func (c *Context) CastGovernanceVote(ctx context.Context, proposalID, voter string, option governance.VoteOption) error {
	return c.Governance.CastVote(ctx, proposalID, voter, option)
}

// CloseVotingAndVerify dispatches ABICloseVotingAndVerify.
func (c *Context) CloseVotingAndVerify(ctx context.Context, proposalID string) (governance.State, error) {
	return c.Governance.CloseVotingPeriod(ctx, proposalID)
}

// ExecuteGovernanceProposal dispatches ABIExecuteGovernanceProposal.
func (c *Context) ExecuteGovernanceProposal(ctx context.Context, proposalID string, apply func() error) error {
	return c.Governance.ExecuteProposal(ctx, proposalID, apply)
}

// GetPendingMeshJobs dispatches ABIGetPendingMeshJobs.
func (c *Context) GetPendingMeshJobs() int { return c.Scheduler.PendingJobs() }

// AnchorReceipt dispatches ABIAnchorReceipt.
func (c *Context) AnchorReceipt(ctx context.Context, receipt scheduler.ExecutionReceipt, latencyMS uint64) ([]byte, error) {
	if err := c.Policy.Check(policy.ScopeNode, policy.OpAnchorReceipt, c.ActorDID); err != nil {
		return nil, err
	}
	cidVal, err := c.Scheduler.AnchorReceipt(ctx, receipt, latencyMS)
	if err != nil {
		return nil, err
	}
	return cidVal.Bytes(), nil
}

// GetReputation dispatches ABIGetReputation.
func (c *Context) GetReputation(ctx context.Context, executor string) (uint64, error) {
	return c.Reputation.Score(ctx, executor)
}

// VerifyZKProof dispatches ABIVerifyZKProof.
func (c *Context) VerifyZKProof(ctx context.Context, circuitID string, proof, publicInputs []byte) (bool, error) {
	return c.ZK.Verify(ctx, circuitID, proof, publicInputs)
}

// GenerateZKProof dispatches ABIGenerateZKProof.
func (c *Context) GenerateZKProof(ctx context.Context, circuitID string, witness []byte) ([]byte, error) {
	return c.ZK.Generate(ctx, circuitID, witness)
}

// ExecuteContractWasm dispatches a contract call through the external
// executor oracle, returning codes.InternalError if none is configured.
func (c *Context) ExecuteContractWasm(ctx context.Context, wasmCID, inputCID []byte) ([]byte, error) {
	if c.Contracts == nil {
		return nil, codes.New(codes.InternalError, "no contract executor configured")
	}
	return c.Contracts.Execute(ctx, wasmCID, inputCID)
}
