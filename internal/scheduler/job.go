// Package scheduler implements the mesh job lifecycle: admission onto a
// FIFO queue, escrow of the job's cost_mana, a bounded-window bid auction,
// deterministic executor selection, and idempotent receipt anchoring with
// escrow settlement. Grounded on
// _examples/original_source crates/icn-mesh (tests/job.rs for the job
// field shapes, matcher.rs, metrics.rs) for the domain shapes, and on
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's mana-charging
// style for the debit/credit calls escrow and settlement are built from.
package scheduler

import "github.com/icn-network/icn-node/internal/cid"

// JobSpec describes the work an executor must perform and the mana terms
// admission enforces.
type JobSpec struct {
	WasmCID      cid.CID
	InputCID     cid.CID
	CostMana     uint64 // escrowed in full at admission; settled on receipt
	MaxPriceMana uint64 // ceiling a winning bid may not exceed
	Scope        string

	// MaxExecutionWaitMS bounds how long an assigned job may run before the
	// scheduler declares it Failed(Timeout). Zero disables the timer,
	// matching tests/job.rs's Option<u64> field.
	MaxExecutionWaitMS uint64
}

// Status is a job's position in the Submitted -> Assigned -> Running ->
// Completed|Failed|Expired lifecycle (spec.md §3's Job.status enum). The
// scheduler never observes Running itself: WASM execution happens on the
// assigned executor, an external oracle per spec.md's Non-goals, so a job
// moves directly from Assigned to Completed or Failed on receipt.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusAssigned  Status = "assigned"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// FailureReason records why a job transitioned to Failed, mirroring the
// Failed(reason) variants spec.md names explicitly (NoBidders, Timeout) plus
// a plain execution failure for a receipt with Success == false.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureNoBidders FailureReason = "no_bidders"
	FailureTimeout   FailureReason = "timeout"
	FailureExecution FailureReason = "execution_failed"
)

// Job is an admitted mesh job moving through the auction/assignment/receipt
// pipeline. The scheduler retains one Job per ID for the job's whole
// lifetime so status transitions and escrow settlement can be applied
// against it after it leaves the admission queue.
type Job struct {
	ID        string
	Submitter string
	Spec      JobSpec

	// CostMana is the amount escrowed from Submitter at admission. It is
	// never mutated after SubmitJob: settlement computes refunds against it
	// rather than draining it down, so a duplicate receipt's settlement
	// attempt (guarded by AnchorReceipt's seen-set) can never be observed
	// mid-drain.
	CostMana uint64

	Status        Status
	FailureReason FailureReason

	// Executor and FinalPriceMana are populated once RunAuction assigns the
	// job; FinalPriceMana is the amount AnchorReceipt pays the executor on
	// success.
	Executor       string
	FinalPriceMana uint64
}

// Bid is an executor's offer to run a Job.
type Bid struct {
	JobID      string
	Executor   string
	PriceMana  uint64
	Reputation uint64
	Load       uint64 // executor's current queue depth, lower is better
}

// JobAssignment is the auction's outcome.
type JobAssignment struct {
	JobID     string
	Executor  string
	PriceMana uint64
}

// ExecutionReceipt is the signed result an executor submits for anchoring.
type ExecutionReceipt struct {
	JobID     string
	Executor  string
	ResultCID cid.CID
	Success   bool
	Signature []byte
}
