package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/config"
	"github.com/icn-network/icn-node/internal/dag"
)

// serveCmd runs the node's background maintenance loops (DAG integrity
// scanning) until interrupted, the long-running counterpart to the
// one-shot ledger/dag/mesh/governance subcommands above.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run background maintenance loops until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interval := time.Duration(config.AppConfig.DAG.IntegrityCheckMS) * time.Millisecond
			if interval <= 0 {
				interval = time.Minute
			}
			checker := dag.NewIntegrityChecker(node.DAG, interval, func(b dag.Block, err error) {
				zap.L().Sugar().Errorw("dag block failed integrity check", "cid", b.CID.String(), "err", err)
			})
			go checker.Run(ctx)

			zap.L().Sugar().Infow("icnd serving", "did", node.ActorDID)
			<-ctx.Done()
			return nil
		},
	}
}
