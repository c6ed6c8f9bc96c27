package dag

import (
	"context"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/codes"
)

// ComputeRoot derives the deterministic DAG root for the given tip set,
// delegating the actual digest to icid.ComputeDAGRoot so every caller in
// this package (and in scheduler/governance, which anchor against a root)
// shares one definition of "the root".
func ComputeRoot(tips []icid.CID) icid.CID { return icid.ComputeDAGRoot(tips) }

// CanonicalTip walks the store's recorded blocks, collects those with no
// incoming adjacency edge (the current tips), and asks icid to choose the
// canonical one by height then lexicographic tie-break. A tip's height is
// looked up in the caller-supplied heights map by CID key; a tip absent
// from the map has height 0. Heights are not derived from the links.
func CanonicalTip(ctx context.Context, s SuspendingStore, heights map[string]uint64) (icid.CID, error) {
	blocks, err := s.ListBlocks(ctx)
	if err != nil {
		return icid.Undef, err
	}
	if len(blocks) == 0 {
		return icid.Undef, codes.New(codes.NotFound, "canonical_tip: dag is empty")
	}

	hasIncoming := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		for _, l := range b.Links {
			hasIncoming[l.CID.String()] = true
		}
	}

	var candidates []icid.TipCandidate
	for _, b := range blocks {
		key := b.CID.String()
		if hasIncoming[key] {
			continue
		}
		candidates = append(candidates, icid.TipCandidate{CID: b.CID, Height: heights[key]})
	}
	if len(candidates) == 0 {
		// every block is referenced by another: cyclic or single-chain
		// edge case, fall back to treating every block as a candidate.
		for _, b := range blocks {
			candidates = append(candidates, icid.TipCandidate{CID: b.CID, Height: heights[b.CID.String()]})
		}
	}
	return icid.ChooseCanonicalRoot(candidates), nil
}
