// Package runtime is the composition root mediating the numbered host-ABI
// surface a WASM contract calls into. It owns no business logic itself —
// every ABI call delegates to the ledger/dag/scheduler/governance/
// reputation packages — and treats contract execution and ZK proof
// primitives as external oracles per spec.md's Non-goals. Grounded on
// _examples/original_source crates/icn-runtime/src/context (the
// RuntimeContext composition root and its HostAbiError taxonomy) and on
// _examples/orbas1-Synnergy/synnergy-network/cmd/synnergy/main.go's
// explicit-construction wiring style (no DI container).
package runtime

// ABI function indices. These exact values are load-bearing: they must
// match the numbering any existing compiled contract expects, carried over
// verbatim from _examples/original_source
// crates/icn-runtime/tests/abi_constants.rs.
const (
	ABIAccountGetMana            = 10
	ABIAccountSpendMana          = 11
	ABIAccountCreditMana         = 12
	ABISubmitMeshJob             = 16
	ABICreateGovernanceProposal  = 17
	ABIOpenGovernanceVoting      = 18
	ABICastGovernanceVote        = 19
	ABICloseVotingAndVerify      = 20
	ABIExecuteGovernanceProposal = 21
	ABIGetPendingMeshJobs        = 22
	ABIAnchorReceipt             = 23
	ABIGetReputation             = 24
	ABIVerifyZKProof             = 25
	ABIGenerateZKProof           = 26
)
