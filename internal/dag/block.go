// Package dag implements the content-addressed merkle block store: a
// persistent map CID -> Block with TTL/pin semantics, a traversal adjacency
// index, and deterministic root computation. Grounded on
// _examples/orbas1-Synnergy/synnergy-network/core/storage.go's disk-LRU
// gateway and core/merkle_tree_operations.go's hashing style, and on
// _examples/original_source crates/icn-dag.
package dag

import (
	"fmt"

	"github.com/icn-network/icn-node/internal/cid"
)

// Block is the signed, content-addressed unit of the DAG. Invariant:
// CID == cid.ComputeMerkleCID(fields except CID); VerifyIntegrity enforces
// this at the boundary.
type Block struct {
	CID       cid.CID
	Data      []byte
	Links     []cid.DagLink
	Timestamp uint64
	AuthorDID string
	Signature []byte // nil/empty means unsigned
	Scope     string // NodeScope tag; empty means unscoped
}

// merkleInput extracts the fields that feed the CID digest.
func (b Block) merkleInput() cid.MerkleCIDInput {
	return cid.MerkleCIDInput{
		Codec:     cid.CodecDagCBOR,
		Data:      b.Data,
		Links:     b.Links,
		Timestamp: b.Timestamp,
		AuthorDID: b.AuthorDID,
		Signature: b.Signature,
		Scope:     b.Scope,
	}
}

// VerifyIntegrity recomputes the block's CID from its other fields and
// rejects a mismatch. Used both on Put and by the background integrity
// checker against already-stored blocks.
func VerifyIntegrity(b Block) error {
	want := cid.ComputeMerkleCID(b.merkleInput())
	if !want.Equal(b.CID) {
		return fmt.Errorf("dag: block %s fails integrity check (recomputed %s)", b.CID, want)
	}
	return nil
}

// NewBlock builds a Block with its CID computed from the given fields, so
// the result always satisfies VerifyIntegrity.
func NewBlock(data []byte, links []cid.DagLink, timestamp uint64, authorDID string, signature []byte, scope string) Block {
	b := Block{
		Data:      data,
		Links:     links,
		Timestamp: timestamp,
		AuthorDID: authorDID,
		Signature: signature,
		Scope:     scope,
	}
	b.CID = cid.ComputeMerkleCID(b.merkleInput())
	return b
}
