package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/icn-network/icn-node/internal/config"
	"github.com/icn-network/icn-node/internal/governance"
)

// governanceCmd groups proposal lifecycle operations: submit, open voting,
// cast a vote, close voting, and inspect.
func governanceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "governance", Short: "create and vote on governance proposals"}

	propose := &cobra.Command{
		Use:   "propose <description> [quorum] [threshold] [timelock-delay]",
		Short: "submit a new proposal, charging the proposal cost in mana",
		Args:  cobra.RangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			quorum := config.AppConfig.Governance.DefaultQuorum
			threshold := config.AppConfig.Governance.DefaultThreshold
			var timelockDelay time.Duration
			if len(args) > 1 {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					return err
				}
				quorum = q
			}
			if len(args) > 2 {
				t, err := strconv.ParseFloat(args[2], 64)
				if err != nil {
					return err
				}
				threshold = t
			}
			if len(args) > 3 {
				d, err := time.ParseDuration(args[3])
				if err != nil {
					return err
				}
				timelockDelay = d
			}
			id, err := node.CreateGovernanceProposal(cmd.Context(), node.ActorDID, args[0], quorum, threshold, timelockDelay)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	openVoting := &cobra.Command{
		Use:   "open <proposal-id>",
		Short: "open a proposal's voting window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return node.OpenGovernanceVoting(cmd.Context(), args[0])
		},
	}

	vote := &cobra.Command{
		Use:   "vote <proposal-id> <yes|no|abstain>",
		Short: "cast a vote, charging the vote cost in mana",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var option governance.VoteOption
			switch args[1] {
			case "yes":
				option = governance.VoteYes
			case "no":
				option = governance.VoteNo
			case "abstain":
				option = governance.VoteAbstain
			default:
				return fmt.Errorf("governance: unknown vote option %q, want yes|no|abstain", args[1])
			}
			return node.CastGovernanceVote(cmd.Context(), args[0], node.ActorDID, option)
		},
	}

	closeVoting := &cobra.Command{
		Use:   "close <proposal-id>",
		Short: "close a proposal's voting window and evaluate quorum/threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := node.CloseVotingAndVerify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <proposal-id>",
		Short: "show a proposal's current state and vote tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := node.Governance.Get(args[0])
			if !ok {
				return fmt.Errorf("governance: proposal %s not found", args[0])
			}
			yes, no, abstain := p.Tally()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: yes=%d no=%d abstain=%d quorum=%d threshold=%.2f deadline=%s\n",
				p.State, yes, no, abstain, p.Quorum, p.Threshold, p.VotingDeadline.Format(time.RFC3339))
			return nil
		},
	}

	cmd.AddCommand(propose, openVoting, vote, closeVoting, status)
	return cmd
}
