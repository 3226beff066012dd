package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func newLinkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Connect nodes or clear their links",
	}
	cmd.AddCommand(newLinkAddCmd(a), newLinkClearCmd(a))
	return cmd
}

func newLinkAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file> <source-id> <target-id>",
		Short: "Link two nodes",
		Long:  "Link two nodes. A pair that is already linked in either direction is left as is.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseID(args[1], "source node")
			if err != nil {
				return err
			}
			tgt, err := parseID(args[2], "target node")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				outcome, res, err := s.AddLink(ctx, src, tgt)
				if err != nil {
					return commandOutput{}, err
				}
				if outcome == types.LinkRejectedDuplicate {
					return commandOutput{Message: fmt.Sprintf("Nodes %d and %d are already linked", src, tgt), Result: res}, nil
				}
				return commandOutput{
					Message: fmt.Sprintf("Linked %d -> %d", src, tgt),
					ID:      res.Added[0].ID,
					Result:  res,
				}, nil
			})
		},
	}
}

func newLinkClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <file> <node-id>",
		Short: "Remove every link touching a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1], "node")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				res, err := s.DeleteLinksForNode(ctx, id)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{
					Message: fmt.Sprintf("Removed %d link(s) from node %d", len(res.Removed), id),
					ID:      id,
					Result:  res,
				}, nil
			})
		},
	}
}
