// Package wire defines the mesh/federation network message envelope and
// its RLP binary encoding, grounded on
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's use of
// github.com/ethereum/go-ethereum/rlp for block decoding — the same codec
// is generalized here to every message this node puts on the wire.
package wire

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Kind tags the payload carried by an Envelope.
type Kind uint8

const (
	KindJobAnnouncement Kind = iota + 1
	KindBid
	KindJobAssignment
	KindExecutionReceipt
	KindFederationSync
	KindFederationSyncResp
	KindGovernanceEvent
)

// Version is bumped whenever the wire format changes incompatibly.
const Version uint8 = 1

// Envelope is the length-prefixed, versioned container every message type
// is wrapped in before being handed to the network transport.
type Envelope struct {
	Version uint8
	Kind    Kind
	Payload []byte
}

// Encode serializes v (one of the payload types below) as an RLP-encoded,
// versioned Envelope.
func Encode(kind Kind, v interface{}) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}
	return rlp.EncodeToBytes(Envelope{Version: Version, Kind: kind, Payload: payload})
}

// DecodeEnvelope parses the outer Envelope without touching its payload,
// so callers can dispatch on Kind before decoding the typed payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("wire: decode envelope: %w", err)
	}
	if env.Version != Version {
		return Envelope{}, fmt.Errorf("wire: unsupported envelope version %d", env.Version)
	}
	return env, nil
}

// DecodePayload decodes an Envelope's payload into v, a pointer to one of
// the payload types below.
func DecodePayload(env Envelope, v interface{}) error {
	if err := rlp.DecodeBytes(env.Payload, v); err != nil {
		return fmt.Errorf("wire: decode payload: %w", err)
	}
	return nil
}

// JobAnnouncement broadcasts a newly submitted mesh job to prospective
// executors.
type JobAnnouncement struct {
	JobID        string
	Submitter    string
	WasmCID      []byte
	InputCID     []byte
	MaxPriceMana uint64
	Scope        string
}

// Bid is an executor's offer to run an announced job.
type Bid struct {
	JobID      string
	Executor   string
	PriceMana  uint64
	Reputation uint64
}

// JobAssignment notifies the winning executor (and observers) of the
// auction outcome.
type JobAssignment struct {
	JobID     string
	Executor  string
	PriceMana uint64
}

// ExecutionReceipt carries a completed job's result back for anchoring.
type ExecutionReceipt struct {
	JobID     string
	Executor  string
	ResultCID []byte
	Success   bool
	Signature []byte
}

// FederationSync requests the sending node's current DAG tip set so the
// receiver can detect divergence.
type FederationSync struct {
	NodeDID string
	Tips    [][]byte
}

// FederationSyncResp answers a FederationSync with blocks the requester is
// missing.
type FederationSyncResp struct {
	Blocks [][]byte // RLP-encoded dag.Block values
}

// GovernanceEventMsg propagates a governance.GovernanceEvent to federation
// peers.
type GovernanceEventMsg struct {
	ProposalID string
	KindTag    string
	Payload    []byte // JSON-encoded governance.GovernanceEvent
}
