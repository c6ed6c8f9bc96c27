package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/icn-network/icn-node/internal/network"
	"github.com/icn-network/icn-node/internal/wire"
)

// DefaultBidWindow bounds how long an auction waits for bids before
// selecting from whatever arrived, per SPEC_FULL.md §4.6.
const DefaultBidWindow = 5 * time.Second

// Window runs a bounded-time bid auction: it announces a job over the
// network and solicits bids from the given candidate executors
// concurrently, using golang.org/x/sync/errgroup the way a fan-out query
// over several unreliable peers is meant to be written.
type Window struct {
	net      network.Service
	duration time.Duration
}

// NewWindow builds an auction window over the given transport with the
// given bid-collection duration.
func NewWindow(net network.Service, duration time.Duration) *Window {
	if duration <= 0 {
		duration = DefaultBidWindow
	}
	return &Window{net: net, duration: duration}
}

// Collect announces job and gathers bids from candidates within the
// window. A candidate that errors or doesn't respond in time is simply
// excluded from the result — auctions tolerate partial participation.
func (w *Window) Collect(ctx context.Context, job Job, candidates []string) ([]Bid, error) {
	if w.net == nil {
		return nil, nil // no transport: nothing can be announced, so no bids
	}
	ctx, cancel := context.WithTimeout(ctx, w.duration)
	defer cancel()

	announcement := wire.JobAnnouncement{
		JobID: job.ID, Submitter: job.Submitter,
		WasmCID: job.Spec.WasmCID.Bytes(), InputCID: job.Spec.InputCID.Bytes(),
		MaxPriceMana: job.Spec.MaxPriceMana, Scope: job.Spec.Scope,
	}
	envelope, err := wire.Encode(wire.KindJobAnnouncement, announcement)
	if err != nil {
		return nil, err
	}
	if err := w.net.Publish(ctx, "icn.mesh.jobs", envelope); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	bidsCh := make(chan Bid, len(candidates))
	for _, c := range candidates {
		candidate := c
		g.Go(func() error {
			resp, err := w.net.Request(gctx, candidate, envelope)
			if err != nil {
				return nil // non-responsive candidate: skip, don't fail the auction
			}
			env, err := wire.DecodeEnvelope(resp)
			if err != nil || env.Kind != wire.KindBid {
				return nil
			}
			var b wire.Bid
			if err := wire.DecodePayload(env, &b); err != nil {
				return nil
			}
			select {
			case bidsCh <- Bid{JobID: b.JobID, Executor: b.Executor, PriceMana: b.PriceMana, Reputation: b.Reputation}:
			case <-gctx.Done():
			}
			return nil
		})
	}
	_ = g.Wait()
	close(bidsCh)

	bids := make([]Bid, 0, len(candidates))
	for b := range bidsCh {
		bids = append(bids, b)
	}
	return bids, nil
}
