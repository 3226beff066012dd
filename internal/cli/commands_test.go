package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/nodeflow"
	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func showJSON(t *testing.T, e *cliEnv, path string) projectView {
	t.Helper()
	out := e.mustRun("show", path, "--json")
	var view projectView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	return view
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "text",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "nodeflow v"+nodeflow.Version)
				assert.Contains(t, out, modulePath)
				assert.Contains(t, out, "go: go")
				assert.Contains(t, out, "project files: *.nf holding [project.db metadata.json]")
			},
		},
		{
			name: "json",
			args: []string{"--json", "version"},
			check: func(t *testing.T, out string) {
				var got versionInfo
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.Equal(t, nodeflow.Version, got.Version)
				assert.Equal(t, modulePath, got.Module)
				assert.Equal(t, ".nf", got.Extension)
				assert.Equal(t, []string{"project.db", "metadata.json"}, got.Entries)
				assert.NotEmpty(t, got.GoVersion)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCLIEnv(t)
			tt.check(t, e.mustRun(tt.args...))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"not found", fmt.Errorf("node 3: %w", types.ErrNotFound), exitUserError},
		{"corrupt archive", types.ErrArchiveCorrupt, exitUserError},
		{"storage io", fmt.Errorf("save: %w", types.ErrStorageIO), exitSysError},
		{"storage init", types.ErrStorageInit, exitSysError},
		{"plain", errors.New("bad flag"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestNewCmd(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")

	out := e.mustRun("new", path, "--description", "Q3 roadmap")
	assert.Contains(t, out, "Created "+path)
	require.FileExists(t, path)

	view := showJSON(t, e, path)
	assert.Equal(t, "plan", view.Metadata.ProjectName)
	assert.Equal(t, "Q3 roadmap", view.Metadata.Description)
	assert.Equal(t, "NodeFlow - plan", view.Title)
	assert.Empty(t, view.Nodes)
	assert.Len(t, view.ProcessTypes, len(types.DefaultProcessTypes()))

	_, err := e.run("new", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	e.mustRun("new", path, "--force")
	assert.Empty(t, showJSON(t, e, path).Metadata.Description)
}

func TestNewCmd_RejectsWrongExtension(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("new", e.path("plan.zip"))
	require.Error(t, err)
	assert.NoFileExists(t, e.path("plan.zip"))
}

func TestNodeAndLinkCmds(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)

	assert.Equal(t, "Added node 1\n",
		e.mustRun("node", "add", path, "--title", "Design", "--type", "in progress", "--assignee", "ana", "--start", "2026-03-01", "--x", "10", "--y", "-5"))
	assert.Equal(t, "Added node 2\n", e.mustRun("node", "add", path, "--title", "Build"))

	assert.Equal(t, "Linked 1 -> 2\n", e.mustRun("link", "add", path, "1", "2"))
	assert.Equal(t, "Nodes 2 and 1 are already linked\n", e.mustRun("link", "add", path, "2", "1"))

	view := showJSON(t, e, path)
	require.Len(t, view.Nodes, 2)
	design := view.Nodes[0]
	assert.Equal(t, "Design", design.Title)
	assert.Equal(t, types.ProcessInProgress, design.ProcessTypeID)
	assert.Equal(t, "ana", design.Assignee)
	require.NotNil(t, design.Start)
	assert.Equal(t, "2026-03-01", design.Start.Format(types.DateLayout))
	assert.Equal(t, 10.0, design.X)
	assert.Equal(t, -5.0, design.Y)
	assert.Equal(t, types.ProcessPlanned, view.Nodes[1].ProcessTypeID)
	require.Len(t, view.Links, 1)
	assert.Equal(t, int64(1), view.Links[0].SourceID)
	assert.Equal(t, int64(2), view.Links[0].TargetID)

	text := e.mustRun("show", path)
	assert.Contains(t, text, "In progress")
	assert.Contains(t, text, "#1 Design")
	assert.Contains(t, text, "Nodes (2)")
	assert.Contains(t, text, "Links (1)")
}

func TestNodeUpdateCmd(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)
	e.mustRun("node", "add", path, "--title", "Design", "--start", "2026-03-01", "--assignee", "ana")

	assert.Equal(t, "Updated node 1\n", e.mustRun("node", "update", path, "1", "--title", "Design v2", "--start", "none", "--type", "5"))

	n := showJSON(t, e, path).Nodes[0]
	assert.Equal(t, "Design v2", n.Title)
	assert.Nil(t, n.Start)
	assert.Equal(t, "ana", n.Assignee, "flags not given are kept")
	assert.Equal(t, types.ProcessBlocked, n.ProcessTypeID)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"missing node", []string{"node", "update", path, "9", "--title", "x"}, types.ErrNotFound},
		{"unknown type", []string{"node", "update", path, "1", "--type", "cancelled"}, types.ErrNotFound},
		{"bad date", []string{"node", "update", path, "1", "--end", "whenever-ish"}, errUnrecognizedDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNodeDeleteCmd_RemovesLinks(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)
	for _, title := range []string{"A", "B", "C"} {
		e.mustRun("node", "add", path, "--title", title)
	}
	e.mustRun("link", "add", path, "1", "2")
	e.mustRun("link", "add", path, "3", "1")
	e.mustRun("link", "add", path, "2", "3")

	assert.Equal(t, "Deleted node 1 and 2 link(s)\n", e.mustRun("node", "delete", path, "1"))

	view := showJSON(t, e, path)
	require.Len(t, view.Nodes, 2)
	require.Len(t, view.Links, 1)
	assert.Equal(t, int64(2), view.Links[0].SourceID)

	_, err := e.run("node", "delete", path, "1")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestLinkClearCmd(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)
	e.mustRun("node", "add", path)
	e.mustRun("node", "add", path)
	e.mustRun("link", "add", path, "1", "2")

	assert.Equal(t, "Removed 1 link(s) from node 2\n", e.mustRun("link", "clear", path, "2"))
	view := showJSON(t, e, path)
	assert.Empty(t, view.Links)
	assert.Len(t, view.Nodes, 2)
}

func TestLinkAddCmd_SelfLoopPolicy(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)
	e.mustRun("node", "add", path)

	_, err := e.run("link", "add", path, "1", "1")
	require.ErrorIs(t, err, types.ErrSelfLoop)

	e.writeConfig("allow_self_loops: true\n")
	assert.Equal(t, "Linked 1 -> 1\n", e.mustRun("link", "add", path, "1", "1"))
	assert.Len(t, showJSON(t, e, path).Links, 1)
}

func TestPropertyCmds(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)

	assert.Equal(t, "Added property 1 \"budget\"\n",
		e.mustRun("property", "add", path, "--type", "integer", "--name", "budget", "--value", "10"))
	e.mustRun("prop", "add", path, "--name", "owner", "--value", "ops")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"duplicate name", []string{"property", "add", path, "--name", "budget"}, types.ErrDuplicateName},
		{"bad value", []string{"property", "add", path, "--type", "boolean", "--name", "done", "--value", "maybe"}, types.ErrInvalidValue},
		{"bad type", []string{"property", "add", path, "--type", "money", "--name", "cost"}, types.ErrInvalidPropertyType},
		{"rename onto existing", []string{"property", "set", path, "2", "--name", "budget"}, types.ErrDuplicateName},
		{"missing id", []string{"property", "delete", path, "7"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	e.mustRun("property", "set", path, "1", "--value", "12")
	e.mustRun("property", "delete", path, "2")

	props := showJSON(t, e, path).Properties
	require.Len(t, props, 1)
	assert.Equal(t, types.PropertyItem{ID: 1, Type: types.PropertyInteger, Name: "budget", Value: "12"}, props[0])
}

func TestDescribeCmd(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)

	assert.Equal(t, "Description updated\n", e.mustRun("describe", path, "launch plan"))
	assert.Equal(t, "launch plan", showJSON(t, e, path).Metadata.Description)
}

func TestMutationJSONOutput(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)

	out := e.mustRun("node", "add", path, "--json")
	var got commandOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, []types.EntityRef{{Kind: types.KindNode, ID: 1}}, got.Result.Added)
}

func TestShowCmd_Errors(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("show", e.path("missing.nf"))
	require.ErrorIs(t, err, types.ErrFileNotFound)
	assert.Equal(t, exitUserError, exitCode(err))

	junk := e.path("junk.nf")
	require.NoError(t, os.WriteFile(junk, []byte("not a zip"), 0o644))
	_, err = e.run("show", junk)
	require.ErrorIs(t, err, types.ErrArchiveCorrupt)
}

func TestShowCmd_DoesNotWrite(t *testing.T) {
	e := newCLIEnv(t)
	path := e.path("plan.nf")
	e.mustRun("new", path)
	before, err := os.Stat(path)
	require.NoError(t, err)

	e.mustRun("show", path)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestWorkDirsAreRemoved(t *testing.T) {
	e := newCLIEnv(t)
	work := t.TempDir()
	e.writeConfig("work_dir: " + work + "\n")
	path := e.path("plan.nf")

	e.mustRun("new", path)
	e.mustRun("node", "add", path, "--title", "A")
	e.mustRun("show", path)

	entries, err := os.ReadDir(filepath.Join(work, "NodeFlowTemp"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootHelpListsCommands(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("--help")
	for _, name := range []string{"new", "show", "node", "link", "property", "describe", "watch", "config", "version"} {
		assert.True(t, strings.Contains(out, "  "+name+" "), "help lists %s", name)
	}
}
