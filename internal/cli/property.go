package cli

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func newPropertyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Manage typed project properties",
	}
	cmd.AddCommand(newPropertyAddCmd(a), newPropertySetCmd(a), newPropertyDeleteCmd(a))
	return cmd
}

func newPropertyAddCmd(a *app) *cobra.Command {
	var kind, name, value string
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := types.ParsePropertyType(kind)
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				id, res, err := s.AddProperty(ctx, types.PropertyItem{Type: pt, Name: name, Value: value})
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: fmt.Sprintf("Added property %d %q", id, name), ID: id, Result: res}, nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(types.PropertyString), "Integer, Double, String, Date or Boolean")
	cmd.Flags().StringVar(&name, "name", "", "property name (unique per project)")
	cmd.Flags().StringVar(&value, "value", "", "property value")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPropertySetCmd(a *app) *cobra.Command {
	var kind, name, value string
	cmd := &cobra.Command{
		Use:   "set <file> <id>",
		Short: "Change a property",
		Long:  "Change a property. Only the flags given are changed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1], "property")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				p, ok := lo.Find(s.Properties(), func(p types.PropertyItem) bool { return p.ID == id })
				if !ok {
					return commandOutput{}, fmt.Errorf("property %d: %w", id, types.ErrNotFound)
				}
				if cmd.Flags().Changed("type") {
					if p.Type, err = types.ParsePropertyType(kind); err != nil {
						return commandOutput{}, err
					}
				}
				if cmd.Flags().Changed("name") {
					p.Name = name
				}
				if cmd.Flags().Changed("value") {
					p.Value = value
				}
				res, err := s.UpdateProperty(ctx, p)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: fmt.Sprintf("Updated property %d", id), ID: id, Result: res}, nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "new type")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	return cmd
}

func newPropertyDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <id>",
		Short: "Delete a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1], "property")
			if err != nil {
				return err
			}
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				res, err := s.DeleteProperty(ctx, id)
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: fmt.Sprintf("Deleted property %d", id), ID: id, Result: res}, nil
			})
		},
	}
}
