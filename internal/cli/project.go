package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/internal/archive"
	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// commandOutput is what mutating commands print.
type commandOutput struct {
	Message string               `json:"message"`
	ID      int64                `json:"id,omitempty"`
	Result  types.MutationResult `json:"result"`
}

// mutation applies one operation to an open session.
type mutation func(ctx context.Context, s types.Session) (commandOutput, error)

// openProject opens path into a new session. The caller must Close the
// returned session.
func (a *app) openProject(ctx context.Context, path string) (types.Session, *types.OpenResult, error) {
	s, err := a.newSession()
	if err != nil {
		return nil, nil, err
	}
	res, err := s.OpenProject(ctx, path)
	if err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, res, nil
}

// mutate opens path, applies fn and saves the project back to path.
func (a *app) mutate(cmd *cobra.Command, path string, fn mutation) error {
	ctx := cmd.Context()
	s, _, err := a.openProject(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := fn(ctx, s)
	if err != nil {
		return err
	}
	if !s.Dirty() {
		return a.print(cmd.OutOrStdout(), out)
	}
	if _, err := s.SaveProject(ctx, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return a.print(cmd.OutOrStdout(), out)
}

func (a *app) print(w io.Writer, out commandOutput) error {
	if a.jsonMode {
		return writeJSON(w, out)
	}
	_, err := fmt.Fprintln(w, out.Message)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// projectArg checks that a positional project path carries the project
// extension.
func projectArg(path string) error {
	if !strings.HasSuffix(path, archive.Extension) || len(path) == len(archive.Extension) {
		return fmt.Errorf("%q: project files must end in %s", path, archive.Extension)
	}
	return nil
}

func newNewCmd(a *app) *cobra.Command {
	var (
		force       bool
		description string
	)
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := projectArg(path); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to replace it)", path)
			}

			ctx := cmd.Context()
			s, err := a.newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.NewProject(ctx); err != nil {
				return err
			}
			if description != "" {
				if _, err := s.SetDescription(ctx, description); err != nil {
					return err
				}
			}
			res, err := s.SaveProject(ctx, path)
			if err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			return a.print(cmd.OutOrStdout(), commandOutput{
				Message: fmt.Sprintf("Created %s", path),
				Result:  res,
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <file> <text>",
		Short: "Set the project description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd, args[0], func(ctx context.Context, s types.Session) (commandOutput, error) {
				res, err := s.SetDescription(ctx, args[1])
				if err != nil {
					return commandOutput{}, err
				}
				return commandOutput{Message: "Description updated", Result: res}, nil
			})
		},
	}
}
