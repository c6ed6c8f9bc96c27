// Package cid implements content-addressed identifiers: a codec byte, a
// hash-algorithm-tagged digest (via go-cid/multihash), and the deterministic
// merkle-CID constructor that feeds every field of a DagBlock into the
// digest. Grounded on _examples/orbas1-Synnergy's use of github.com/ipfs/go-cid
// and github.com/multiformats/go-multihash in core/storage.go, and on
// _examples/original_source crates/icn-common's compute_merkle_cid and
// Cid::new_v1_sha256.
package cid

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	ipfscid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Codec bytes per spec.md §6.
const (
	CodecDagCBOR uint64 = 0x71 // canonical block codec
	CodecRaw     uint64 = 0x55 // raw leaf data
)

// CID wraps an IPFS CID, exposing the (codec, hash_alg, digest) triple the
// spec names directly.
type CID struct {
	inner ipfscid.Cid
}

// Undef is the zero value; IsUndef reports whether a CID was never set.
var Undef = CID{}

func (c CID) IsUndef() bool { return !c.inner.Defined() }

// NewV1SHA256 is the canonical constructor: codec byte plus raw content
// bytes, hashed with SHA-256 and wrapped as a CIDv1 multihash.
func NewV1SHA256(codec uint64, data []byte) CID {
	digest, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		// mh.Sum only fails for unsupported algorithms or bad lengths;
		// SHA2_256 with length -1 (default) never does.
		panic(fmt.Sprintf("cid: sha256 multihash: %v", err))
	}
	return CID{inner: ipfscid.NewCidV1(codec, digest)}
}

// String renders the canonical (base32, lowercase) string form.
func (c CID) String() string {
	if c.IsUndef() {
		return ""
	}
	return c.inner.String()
}

// Bytes returns the raw (codec+multihash-prefixed) byte form, suitable for
// RLP/length-prefixed wire encoding.
func (c CID) Bytes() []byte {
	if c.IsUndef() {
		return nil
	}
	return c.inner.Bytes()
}

// FromBytes parses the byte form produced by Bytes.
func FromBytes(b []byte) (CID, error) {
	if len(b) == 0 {
		return Undef, nil
	}
	parsed, err := ipfscid.Cast(b)
	if err != nil {
		return Undef, fmt.Errorf("cid: parse: %w", err)
	}
	return CID{inner: parsed}, nil
}

// ParseString parses the string form produced by String.
func ParseString(s string) (CID, error) {
	if s == "" {
		return Undef, nil
	}
	parsed, err := ipfscid.Decode(s)
	if err != nil {
		return Undef, fmt.Errorf("cid: decode: %w", err)
	}
	return CID{inner: parsed}, nil
}

// Equal reports byte-for-byte equality.
func (c CID) Equal(other CID) bool { return c.inner.Equals(other.inner) }

// Less orders two CIDs lexicographically on their serialized string form,
// per spec.md §3 ("Equality and ordering are lexicographic on the
// serialized form").
func (c CID) Less(other CID) bool { return c.String() < other.String() }

// DagLink is a named, sized edge to a child block.
type DagLink struct {
	CID  CID
	Name string
	Size uint64
}

// MerkleCIDInput captures every field that feeds compute_merkle_cid, so the
// digest changes if any one of them does (spec.md §3: "any mutation changes
// the CID").
type MerkleCIDInput struct {
	Codec     uint64
	Data      []byte
	Links     []DagLink
	Timestamp uint64
	AuthorDID string
	Signature []byte
	Scope     string
}

// ComputeMerkleCID deterministically derives a CID from every field of a
// DagBlock except the CID itself. Links are hashed in their declared order
// (link order is part of block identity, unlike tip-set hashing below).
func ComputeMerkleCID(in MerkleCIDInput) CID {
	h := sha256.New()
	h.Write(in.Data)
	for _, l := range in.Links {
		h.Write(l.CID.Bytes())
		h.Write([]byte(l.Name))
		var sizeBuf [8]byte
		binary.BigEndian.PutUint64(sizeBuf[:], l.Size)
		h.Write(sizeBuf[:])
	}
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], in.Timestamp)
	h.Write(tsBuf[:])
	h.Write([]byte(in.AuthorDID))
	h.Write(in.Signature)
	h.Write([]byte(in.Scope))
	sum := h.Sum(nil)

	digest, err := mh.Encode(sum, mh.SHA2_256)
	if err != nil {
		panic(fmt.Sprintf("cid: encode multihash: %v", err))
	}
	return CID{inner: ipfscid.NewCidV1(in.Codec, digest)}
}

// ComputeDAGRoot is deterministic regardless of tip submission order: sort
// tips lexicographically on their string form, then hash the concatenation.
// An empty tip set returns a defined, stable zero CID rather than Undef, per
// spec.md §8's boundary case.
func ComputeDAGRoot(tips []CID) CID {
	strs := make([]string, len(tips))
	byStr := make(map[string]CID, len(tips))
	for i, t := range tips {
		s := t.String()
		strs[i] = s
		byStr[s] = t
	}
	sort.Strings(strs)

	h := sha256.New()
	h.Write([]byte("icn-dag-root-v1"))
	for _, s := range strs {
		h.Write(byStr[s].Bytes())
	}
	digest, err := mh.Encode(h.Sum(nil), mh.SHA2_256)
	if err != nil {
		panic(fmt.Sprintf("cid: encode multihash: %v", err))
	}
	return CID{inner: ipfscid.NewCidV1(CodecDagCBOR, digest)}
}

// TipCandidate pairs a CID with its chain height for canonical root
// selection.
type TipCandidate struct {
	CID    CID
	Height uint64
}

// ChooseCanonicalRoot selects the candidate with maximum height, breaking
// ties by lexicographically smallest CID string. It is a total function on
// non-empty input and is stable under permutation of candidates (spec.md §8
// invariant 4). Panics on empty input: callers must special-case "no tips
// yet" before calling, since there is no defined "no root" CID distinct from
// the empty-root value ComputeDAGRoot returns.
func ChooseCanonicalRoot(candidates []TipCandidate) CID {
	if len(candidates) == 0 {
		panic("cid: ChooseCanonicalRoot requires at least one candidate")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.Height > best.Height:
			best = c
		case c.Height == best.Height && c.CID.Less(best.CID):
			best = c
		}
	}
	return best.CID
}
