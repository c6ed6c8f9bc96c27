// Package policy enforces per-scope authorization decisions at the runtime
// host-ABI boundary: is this actor allowed to submit a DAG block, spend
// mana, or anchor a receipt within this NodeScope. Grounded on
// _examples/original_source crates/icn-runtime/src/policy.rs's
// ScopedPolicyEnforcer trait and PolicyError enum.
package policy

import "github.com/icn-network/icn-node/internal/codes"

// NodeScope names the authorization boundary an operation is evaluated
// against.
type NodeScope string

const (
	ScopeNode        NodeScope = "node"
	ScopeCooperative NodeScope = "cooperative"
	ScopeFederation  NodeScope = "federation"
)

// Op names a policy-governed operation.
type Op string

const (
	OpSubmitBlock     Op = "submit_block"
	OpPin             Op = "pin"
	OpPrune           Op = "prune"
	OpSubmitMeshJob   Op = "submit_mesh_job"
	OpAnchorReceipt   Op = "anchor_receipt"
	OpProposeGovernance Op = "propose_governance_change"
)

// Enforcer decides whether actor may perform op within scope. A nil error
// means the call is permitted.
type Enforcer interface {
	Check(scope NodeScope, op Op, actorDID string) error
}

// AllowAll permits every operation; the default for single-node
// development deployments.
type AllowAll struct{}

func (AllowAll) Check(NodeScope, Op, string) error { return nil }

// Scoped enforces an explicit allow-list of (scope, op) pairs that any
// actor may perform, plus an optional per-scope member set; when a scope
// has one, every operation in that scope requires the actor to be a member.
type Scoped struct {
	allowed map[NodeScope]map[Op]bool
	members map[NodeScope]map[string]bool
}

// NewScoped builds an enforcer from an explicit allow-list. allowed maps a
// scope to the set of operations any caller may perform in it; members
// additionally restricts which DIDs belong to each scope; a scope listed
// there admits only its members, for every operation (OpProposeGovernance
// included).
func NewScoped(allowed map[NodeScope][]Op, members map[NodeScope][]string) *Scoped {
	s := &Scoped{
		allowed: make(map[NodeScope]map[Op]bool, len(allowed)),
		members: make(map[NodeScope]map[string]bool, len(members)),
	}
	for scope, ops := range allowed {
		set := make(map[Op]bool, len(ops))
		for _, op := range ops {
			set[op] = true
		}
		s.allowed[scope] = set
	}
	for scope, dids := range members {
		set := make(map[string]bool, len(dids))
		for _, did := range dids {
			set[did] = true
		}
		s.members[scope] = set
	}
	return s
}

// Check enforces membership for every operation and the allow-list for the
// operation itself.
func (s *Scoped) Check(scope NodeScope, op Op, actorDID string) error {
	if members, ok := s.members[scope]; ok && len(members) > 0 && !members[actorDID] {
		return codes.New(codes.Unauthorized, "actor is not a member of scope "+string(scope))
	}
	if ops, ok := s.allowed[scope]; !ok || !ops[op] {
		return codes.New(codes.PolicyDenied, string(op)+" is not permitted in scope "+string(scope))
	}
	return nil
}

var (
	_ Enforcer = AllowAll{}
	_ Enforcer = (*Scoped)(nil)
)
