package dag

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// IntegrityChecker periodically re-verifies every stored block's CID
// against its content and reports mismatches, the way a scrub pass would
// over a disk array. Grounded on the periodic-prune goroutine pattern in
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go (the WAL
// rewrite/compaction loop), generalized from compaction to verification.
type IntegrityChecker struct {
	store    SuspendingStore
	interval time.Duration
	onBad    func(Block, error)
}

// NewIntegrityChecker builds a checker that scans the store's full block
// set every interval. onBad is invoked (best-effort, not retried) for each
// block that fails VerifyIntegrity; pass nil to just log.
func NewIntegrityChecker(store SuspendingStore, interval time.Duration, onBad func(Block, error)) *IntegrityChecker {
	return &IntegrityChecker{store: store, interval: interval, onBad: onBad}
}

// Run blocks, scanning on every tick until ctx is cancelled.
func (c *IntegrityChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.scanOnce(ctx)
		}
	}
}

func (c *IntegrityChecker) scanOnce(ctx context.Context) {
	blocks, err := c.store.ListBlocks(ctx)
	if err != nil {
		logrus.WithError(err).Error("dag integrity: failed to list blocks")
		return
	}
	bad := 0
	for _, b := range blocks {
		if err := VerifyIntegrity(b); err != nil {
			bad++
			logrus.WithFields(logrus.Fields{"cid": b.CID.String(), "error": err}).
				Error("dag integrity: block failed verification")
			if c.onBad != nil {
				c.onBad(b, err)
			}
		}
	}
	logrus.WithFields(logrus.Fields{"scanned": len(blocks), "bad": bad}).Debug("dag integrity: scan complete")
}
