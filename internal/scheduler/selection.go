package scheduler

// SelectionWeights parameterizes the deterministic executor-scoring
// function. Defaults per SPEC_FULL.md §4.6, grounded on
// _examples/original_source crates/icn-mesh/src/matcher.rs and
// src/metrics.rs's weighted formula (price favored slightly over
// reputation, load a tiebreaker).
type SelectionWeights struct {
	Price      float64
	Reputation float64
	Load       float64
}

// DefaultSelectionWeights is the out-of-the-box configuration.
var DefaultSelectionWeights = SelectionWeights{Price: 1.0, Reputation: 0.5, Load: 0.25}

// score computes a bid's selection score: lower price, higher reputation,
// and lower load all improve it. Deterministic and pure so
// SelectExecutor's result depends only on the bid set and weights.
func score(b Bid, w SelectionWeights, maxPrice uint64) float64 {
	priceTerm := 0.0
	if maxPrice > 0 {
		priceTerm = float64(maxPrice-minU64(b.PriceMana, maxPrice)) / float64(maxPrice)
	}
	repTerm := float64(b.Reputation) / float64(b.Reputation+1)
	loadTerm := 1.0 / float64(b.Load+1)
	return w.Price*priceTerm + w.Reputation*repTerm + w.Load*loadTerm
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// SelectExecutor picks the highest-scoring bid among those at or below
// maxPriceMana. Ties break on the lexicographically smallest executor ID so
// selection is a total, deterministic function of the bid set (spec.md §8:
// "selection must be reproducible given the same bids").
func SelectExecutor(bids []Bid, maxPriceMana uint64, w SelectionWeights) (Bid, bool) {
	selectExecutorCalls.Inc()

	var best Bid
	found := false
	bestScore := -1.0
	for _, b := range bids {
		if b.PriceMana > maxPriceMana {
			continue
		}
		s := score(b, w, maxPriceMana)
		switch {
		case !found:
			best, bestScore, found = b, s, true
		case s > bestScore:
			best, bestScore = b, s
		case s == bestScore && b.Executor < best.Executor:
			best = b
		}
	}
	return best, found
}
