package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// nodeFlags holds the editable node fields accepted by node add and node
// update.
type nodeFlags struct {
	title    string
	status   string
	assignee string
	start    string
	end      string
	x, y     float64
	path     string
}

func (f *nodeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "node title")
	fs.StringVar(&f.status, "type", "", "process type name or id (default: Planned)")
	fs.StringVar(&f.assignee, "assignee", "", "assignee")
	fs.StringVar(&f.start, "start", "", `start date: YYYY-MM-DD, RFC 3339, "next monday" or "none"`)
	fs.StringVar(&f.end, "end", "", "end date, same forms as --start")
	fs.Float64Var(&f.x, "x", 0, "canvas x coordinate")
	fs.Float64Var(&f.y, "y", 0, "canvas y coordinate")
	fs.StringVar(&f.path, "path", "", "icon or file reference")
}

// apply copies the flags that were set on the command line onto n.
func (f *nodeFlags) apply(fs *pflag.FlagSet, n *types.Node, processTypes []types.ProcessType, now time.Time) error {
	if fs.Changed("title") {
		n.Title = f.title
	}
	if fs.Changed("type") {
		id, err := resolveProcessType(processTypes, f.status)
		if err != nil {
			return err
		}
		n.ProcessTypeID = id
	}
	if fs.Changed("assignee") {
		n.Assignee = f.assignee
	}
	if fs.Changed("start") {
		t, err := parseDate(f.start, now)
		if err != nil {
			return err
		}
		n.Start = t
	}
	if fs.Changed("end") {
		t, err := parseDate(f.end, now)
		if err != nil {
			return err
		}
		n.End = t
	}
	if fs.Changed("x") {
		n.X = f.x
	}
	if fs.Changed("y") {
		n.Y = f.y
	}
	if fs.Changed("path") {
		n.Path = f.path
	}
	return nil
}

// resolveProcessType matches s against process type ids and,
// case-insensitively, names.
func resolveProcessType(processTypes []types.ProcessType, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if lo.ContainsBy(processTypes, func(pt types.ProcessType) bool { return pt.ID == id }) {
			return id, nil
		}
	}
	pt, ok := lo.Find(processTypes, func(pt types.ProcessType) bool { return strings.EqualFold(pt.Name, s) })
	if !ok {
		names := lo.Map(processTypes, func(pt types.ProcessType, _ int) string { return pt.Name })
		return 0, fmt.Errorf("process type %q (known: %s): %w", s, strings.Join(names, ", "), types.ErrNotFound)
	}
	return pt.ID, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func newNodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Add, update or delete nodes",
	}
	cmd.AddCommand(newNodeAddCmd(a), newNodeUpdateCmd(a), newNodeDeleteCmd(a))
	return cmd
}

func newNodeAddCmd(a *app) *cobra.Command {
	var f nodeFlags
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				var n types.Node
				if err := f.apply(cmd.Flags(), &n, s.ProcessTypes(), time.Now()); err != nil {
					return commandOutput{}, err
				}
				id, res, err := s.AddNode(ctx, n)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: fmt.Sprintf("Added node %d", id), ID: id, Result: res}, nil
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newNodeUpdateCmd(a *app) *cobra.Command {
	var f nodeFlags
	cmd := &cobra.Command{
		Use:   "update <file> <id>",
		Short: "Change fields of a node",
		Long:  "Change fields of a node. Only the flags given are changed; pass \"none\" to --start or --end to clear a date.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1], "node")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				n, ok := lo.Find(s.Nodes(), func(n types.Node) bool { return n.ID == id })
				if !ok {
					return commandOutput{}, fmt.Errorf("node %d: %w", id, types.ErrNotFound)
				}
				if err := f.apply(cmd.Flags(), &n, s.ProcessTypes(), time.Now()); err != nil {
					return commandOutput{}, err
				}
				res, err := s.UpdateNode(ctx, n)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: fmt.Sprintf("Updated node %d", id), ID: id, Result: res}, nil
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newNodeDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <id>",
		Short: "Delete a node and every link touching it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1], "node")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				res, err := s.DeleteNode(ctx, id)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{
					Message: fmt.Sprintf("Deleted node %d and %d link(s)", id, len(res.Removed)-1),
					ID:      id,
					Result:  res,
				}, nil
			})
		},
	}
}
