package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/scheduler"
)

// meshCmd groups mesh-computation job scheduler operations: submission,
// auction, and pending-job inspection.
func meshCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "mesh", Short: "submit and run mesh-computation jobs"}

	submit := &cobra.Command{
		Use:   "submit <wasm-cid> <input-cid> <cost-mana> <max-price-mana> [max-execution-wait-ms]",
		Short: "submit a job to the scheduler's admission queue, escrowing cost-mana",
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmCID, err := icid.ParseString(args[0])
			if err != nil {
				return err
			}
			inputCID, err := icid.ParseString(args[1])
			if err != nil {
				return err
			}
			costMana, err := parseUint64(args[2])
			if err != nil {
				return err
			}
			maxPrice, err := parseUint64(args[3])
			if err != nil {
				return err
			}
			var maxWaitMS uint64
			if len(args) > 4 {
				maxWaitMS, err = parseUint64(args[4])
				if err != nil {
					return err
				}
			}
			job, err := node.SubmitMeshJob(cmd.Context(), node.ActorDID, scheduler.JobSpec{
				WasmCID:            wasmCID,
				InputCID:           inputCID,
				CostMana:           costMana,
				MaxPriceMana:       maxPrice,
				MaxExecutionWaitMS: maxWaitMS,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), job.ID)
			return nil
		},
	}

	auction := &cobra.Command{
		Use:   "auction <candidate-did,candidate-did,...>",
		Short: "pop the next queued job and run its bid auction against the given candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates := strings.Split(args[0], ",")
			assignment, ok, err := node.Scheduler.RunAuction(cmd.Context(), candidates)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no job assigned: empty queue or no bids")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s assigned to %s at %d mana\n", assignment.JobID, assignment.Executor, assignment.PriceMana)
			return nil
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "print the number of jobs still waiting on the admission queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), node.GetPendingMeshJobs())
			return nil
		},
	}

	cmd.AddCommand(submit, auction, pending)
	return cmd
}
