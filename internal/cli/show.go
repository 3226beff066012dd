package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// projectView is the JSON form of show.
type projectView struct {
	Title    string                `json:"title"`
	Metadata types.ProjectMetadata `json:"metadata"`
	types.Snapshot
	Warnings []string `json:"warnings,omitempty"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the nodes, links and properties of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.showProject(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// showProject loads path and returns its rendering in the selected output
// mode. The file is never written.
func (a *app) showProject(cmd *cobra.Command, path string) (string, error) {
	s, res, err := a.openProject(cmd.Context(), path)
	if err != nil {
		return "", err
	}
	defer s.Close()

	if !a.jsonMode {
		return renderProject(s.Title(), s.Metadata(), s.Snapshot()), nil
	}

	view := projectView{
		Title:    s.Title(),
		Metadata: s.Metadata(),
		Snapshot: s.Snapshot(),
	}
	for _, w := range res.Warnings {
		view.Warnings = append(view.Warnings, w.Error())
	}
	var b strings.Builder
	if err := writeJSON(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
