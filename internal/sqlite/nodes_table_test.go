package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func TestNodes_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	n := &types.Node{
		Title:         "Design",
		ProcessTypeID: types.ProcessInProgress,
		Start:         &start,
		Assignee:      "ana",
		X:             -12.5,
		Y:             300,
		Path:          "icons/design.png",
	}
	id, err := s.InsertNode(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)

	nodes, err := s.LoadAllNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	got := nodes[0]
	assert.Equal(t, "Design", got.Title)
	assert.Equal(t, types.ProcessInProgress, got.ProcessTypeID)
	require.NotNil(t, got.Start)
	assert.True(t, start.Equal(*got.Start))
	assert.Nil(t, got.End)
	assert.Equal(t, -12.5, got.X)
	assert.Equal(t, "icons/design.png", got.Path)

	got.Title = "Design v2"
	got.Start = nil
	require.NoError(t, s.UpdateNode(ctx, got))

	nodes, err = s.LoadAllNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Design v2", nodes[0].Title)
	assert.Nil(t, nodes[0].Start)

	require.NoError(t, s.DeleteNode(ctx, id))
	nodes, err = s.LoadAllNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestNodes_IdentifiersNeverReused(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)
	second, err := s.InsertNode(ctx, &types.Node{Title: "B"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	require.NoError(t, s.DeleteNode(ctx, second))

	third, err := s.InsertNode(ctx, &types.Node{Title: "C"})
	require.NoError(t, err)
	assert.Greater(t, third, second)
}

func TestNodes_MissingID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		op   func() error
	}{
		{"update", func() error { return s.UpdateNode(ctx, types.Node{ID: 99, Title: "ghost"}) }},
		{"delete", func() error { return s.DeleteNode(ctx, 99) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), types.ErrNotFound)
		})
	}
}

func TestNodes_DeleteRestrictedByLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &types.Node{Title: "B"})
	require.NoError(t, err)
	_, err = s.InsertLink(ctx, &types.Link{SourceID: a, TargetID: b})
	require.NoError(t, err)

	err = s.DeleteNode(ctx, a)
	assert.ErrorIs(t, err, types.ErrReferentialIntegrity)

	removed, err := s.DeleteLinksTouchingNode(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.NoError(t, s.DeleteNode(ctx, a))
}

func TestNodes_DeleteWithLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &types.Node{Title: "B"})
	require.NoError(t, err)
	c, err := s.InsertNode(ctx, &types.Node{Title: "C"})
	require.NoError(t, err)
	for _, l := range []types.Link{{SourceID: a, TargetID: b}, {SourceID: c, TargetID: a}, {SourceID: b, TargetID: c}} {
		_, err := s.InsertLink(ctx, &l)
		require.NoError(t, err)
	}

	removed, err := s.DeleteNodeWithLinks(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	nodes, err := s.LoadAllNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	links, err := s.LoadAllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = s.DeleteNodeWithLinks(ctx, a)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNodes_DeleteWithLinksRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &types.Node{Title: "B"})
	require.NoError(t, err)
	_, err = s.InsertLink(ctx, &types.Link{SourceID: a, TargetID: b})
	require.NoError(t, err)

	injected := errors.New("io error")
	s.uow = &failOnNthExecUoW{db: s.db, failOn: 2, err: injected}

	_, err = s.DeleteNodeWithLinks(ctx, a)
	require.ErrorIs(t, err, injected)

	links, err := s.LoadAllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1, "link delete must roll back with the node delete")
}
