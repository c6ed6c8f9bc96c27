package scheduler

// AidRequest and JobTemplate model a secondary matching mode alongside the
// auction: rather than soliciting bids, a cooperative can pre-register
// standing capacity offers (JobTemplate) that aid requests are greedily
// matched against without going through a bidding round. Supplemented from
// _examples/original_source crates/icn-mesh/src/matcher.rs, which the
// distilled spec dropped.
type AidRequest struct {
	ID           string
	RequesterDID string
	Spec         JobSpec
}

// JobTemplate is a standing capacity offer an executor publishes ahead of
// time.
type JobTemplate struct {
	ExecutorDID  string
	MaxPriceMana uint64
	Scope        string
	Capacity     int // number of concurrent aid requests this template can serve
}

// MatchResult pairs a satisfied aid request with the template that serves
// it.
type MatchResult struct {
	Request  AidRequest
	Template JobTemplate
}

// MatchUnfilledRequests greedily pairs each request with the first
// template (in slice order) that can afford its price and shares its
// scope, decrementing that template's remaining capacity as it goes.
// Requests with no matching template are omitted from the result, not
// errored: unmet aid requests simply remain for the next matching pass.
func MatchUnfilledRequests(requests []AidRequest, templates []JobTemplate) []MatchResult {
	remaining := make([]int, len(templates))
	for i, t := range templates {
		remaining[i] = t.Capacity
	}

	var out []MatchResult
	for _, req := range requests {
		for i, t := range templates {
			if remaining[i] <= 0 {
				continue
			}
			if t.Scope != req.Spec.Scope {
				continue
			}
			if t.MaxPriceMana < req.Spec.MaxPriceMana {
				continue
			}
			remaining[i]--
			out = append(out, MatchResult{Request: req, Template: t})
			break
		}
	}
	return out
}
