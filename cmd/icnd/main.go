// Command icnd runs a single ICN cooperative-infrastructure node: its
// content-addressed DAG store, mana ledger, reputation store, governance
// engine, and mesh job scheduler, wired together as one process and
// operable through a cobra CLI. Grounded on the explicit cobra root-command
// wiring of
// _examples/orbas1-Synnergy/synnergy-network/cmd/synnergy/main.go, with
// subcommand structure following cmd/cli's per-subsystem command files
// (e.g. account_and_balance_operations.go's accountCmd grouping).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/config"
	"github.com/icn-network/icn-node/internal/dag"
	"github.com/icn-network/icn-node/internal/eventstore"
	"github.com/icn-network/icn-node/internal/governance"
	"github.com/icn-network/icn-node/internal/ledger"
	"github.com/icn-network/icn-node/internal/network"
	"github.com/icn-network/icn-node/internal/policy"
	"github.com/icn-network/icn-node/internal/reputation"
	"github.com/icn-network/icn-node/internal/runtime"
	"github.com/icn-network/icn-node/internal/scheduler"
)

// node is the process-wide runtime.Context singleton, mirroring the
// CurrentLedger()-style singleton accessors cmd/cli's subsystem commands
// read from, so every subcommand in this binary operates against the one
// composition root built in buildNode.
var node *runtime.Context

func main() {
	undo, _ := maxprocs.Set()
	defer undo()

	rootCmd := &cobra.Command{
		Use:   "icnd",
		Short: "run and operate an ICN cooperative-infrastructure node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return buildNode()
		},
	}

	rootCmd.AddCommand(ledgerCmd(), dagCmd(), meshCmd(), governanceCmd(), serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildNode assembles the full runtime.Context via explicit constructor
// wiring, no DI container, following main.go's direct top-level wiring
// style throughout _examples/orbas1-Synnergy/synnergy-network/cmd.
func buildNode() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		// a missing config file is tolerable; icnd runs on the compiled-in
		// zero value (in-memory backends) when no file is present.
		cfg = &config.AppConfig
	}

	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	var store dag.SuspendingStore
	switch cfg.DAG.Backend {
	case "kv":
		kv, err := dag.OpenKVStore(cfg.DAG.Path)
		if err != nil {
			return err
		}
		store = kv
	case "sql":
		sqlStore, err := dag.OpenSQLStore(cfg.DAG.Path)
		if err != nil {
			return err
		}
		store = sqlStore
	default:
		store = dag.SyncAdapter{Store: dag.NewMemory()}
	}

	var ledgerEvents eventstore.Store[ledger.Event]
	if cfg.Ledger.Backend == "file" {
		f, err := eventstore.OpenFile[ledger.Event](cfg.Ledger.Path)
		if err != nil {
			return err
		}
		ledgerEvents = f
	} else {
		ledgerEvents = eventstore.NewMemory[ledger.Event]()
	}
	led, err := ledger.New(ctx, ledgerEvents)
	if err != nil {
		return err
	}

	rep := reputation.New(eventstore.NewMemory[reputation.Event]())

	var govEvents eventstore.Store[governance.GovernanceEvent]
	if cfg.Governance.Backend == "file" {
		f, err := eventstore.OpenFile[governance.GovernanceEvent](cfg.Governance.Path)
		if err != nil {
			return err
		}
		govEvents = f
	} else {
		govEvents = eventstore.NewMemory[governance.GovernanceEvent]()
	}
	gov, err := governance.New(ctx, govEvents, led)
	if err != nil {
		return err
	}
	if cfg.Governance.VotingWindowSeconds > 0 {
		gov.SetVotingDuration(time.Duration(cfg.Governance.VotingWindowSeconds) * time.Second)
	}

	var net network.Service
	if cfg.Network.Transport == "libp2p" {
		n, err := network.NewLibP2P(ctx, network.Config{
			ListenAddr:      cfg.Network.ListenAddr,
			DiscoveryTag:    cfg.Network.DiscoveryTag,
			BootstrapPeers:  cfg.Network.BootstrapPeers,
			GossipRateLimit: cfg.Network.GossipRateLimit,
		})
		if err != nil {
			return err
		}
		net = n
	} else {
		n, err := network.NewMemory(cfg.Node.DID)
		if err != nil {
			return err
		}
		net = n
	}

	bidWindow := time.Duration(cfg.Scheduler.BidWindowMS) * time.Millisecond
	if bidWindow <= 0 {
		bidWindow = scheduler.DefaultBidWindow
	}
	sched := scheduler.New(led, rep, store, net, bidWindow)
	if cfg.Scheduler.WeightPrice != 0 || cfg.Scheduler.WeightReputation != 0 || cfg.Scheduler.WeightLoad != 0 {
		sched.SetWeights(scheduler.SelectionWeights{
			Price:      cfg.Scheduler.WeightPrice,
			Reputation: cfg.Scheduler.WeightReputation,
			Load:       cfg.Scheduler.WeightLoad,
		})
	}

	var enforcer policy.Enforcer = policy.AllowAll{}

	node = runtime.NewContext(led, rep, store, sched, gov, enforcer, nil, nil, cfg.Node.DID)
	return nil
}
