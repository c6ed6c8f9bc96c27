package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/dag"
)

// dagCmd groups content-addressed block store operations.
func dagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "dag", Short: "inspect and mutate the content-addressed DAG store"}

	put := &cobra.Command{
		Use:   "put <data>",
		Short: "store a new unlinked block and print its CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := dag.NewBlock([]byte(args[0]), nil, uint64(time.Now().Unix()), node.ActorDID, nil, "")
			if err := node.DAG.Put(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.CID.String())
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <cid>",
		Short: "fetch a block by CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := icid.ParseString(args[0])
			if err != nil {
				return err
			}
			b, ok, err := node.DAG.Get(cmd.Context(), c)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("dag: %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b.Data))
			return nil
		},
	}

	pin := &cobra.Command{
		Use:   "pin <cid>",
		Short: "pin a block so it survives TTL expiry pruning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := icid.ParseString(args[0])
			if err != nil {
				return err
			}
			if err := node.DAG.PinBlock(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pinned")
			return nil
		},
	}

	cmd.AddCommand(put, get, pin)
	return cmd
}
