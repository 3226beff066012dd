package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([]string{"ID", "TITLE"}, [][]string{
		{"1", "Design"},
		{"12", "Build the thing"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)

	col := strings.Index(lines[0], "TITLE")
	require.Positive(t, col)
	assert.Equal(t, col, strings.Index(lines[2], "Design"))
	assert.Equal(t, col, strings.Index(lines[3], "Build the thing"))
}

func TestRenderProject(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := types.Snapshot{
		Nodes: []types.Node{
			{ID: 1, Title: "Design", ProcessTypeID: types.ProcessDone, Start: &start, Assignee: "ana"},
			{ID: 2, ProcessTypeID: 99},
		},
		Links:        []types.Link{{ID: 1, SourceID: 1, TargetID: 2}},
		Properties:   []types.PropertyItem{{ID: 1, Type: types.PropertyDouble, Name: "rate", Value: "1.5"}},
		ProcessTypes: types.DefaultProcessTypes(),
	}
	meta := types.ProjectMetadata{ProjectName: "plan", Description: "launch", CreationDate: start, LastModifiedDate: start}

	out := renderProject("NodeFlow - plan", meta, snap)

	for _, want := range []string{
		"NodeFlow - plan", "launch", "created 2026-03-01",
		"Nodes (2)", "Design", "Done", "ana", "2026-03-01",
		"Links (1)", "#1 Design", "#2",
		"Properties (1)", "rate", "Double", "1.5",
	} {
		assert.Contains(t, out, want)
	}
}
