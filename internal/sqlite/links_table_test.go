package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func TestLinks_InsertAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &types.Node{Title: "B"})
	require.NoError(t, err)

	created := time.Date(2025, 5, 6, 7, 8, 9, 123, time.UTC)
	l := &types.Link{SourceID: a, TargetID: b, CreatedAt: created}
	id, err := s.InsertLink(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, id, l.ID)

	links, err := s.LoadAllLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, a, links[0].SourceID)
	assert.Equal(t, b, links[0].TargetID)
	assert.True(t, created.Equal(links[0].CreatedAt))
}

func TestLinks_DefaultCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &types.Node{})
	require.NoError(t, err)

	before := time.Now().UTC()
	l := &types.Link{SourceID: a, TargetID: b}
	_, err = s.InsertLink(ctx, l)
	require.NoError(t, err)
	assert.False(t, l.CreatedAt.Before(before))
}

func TestLinks_MissingEndpoint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.InsertNode(ctx, &types.Node{Title: "A"})
	require.NoError(t, err)

	_, err = s.InsertLink(ctx, &types.Link{SourceID: a, TargetID: 404})
	assert.ErrorIs(t, err, types.ErrReferentialIntegrity)
}

func TestLinks_DeleteTouchingNode(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids := make([]int64, 3)
	for i := range ids {
		id, err := s.InsertNode(ctx, &types.Node{})
		require.NoError(t, err)
		ids[i] = id
	}
	for _, pair := range [][2]int64{{ids[0], ids[1]}, {ids[2], ids[0]}, {ids[1], ids[2]}} {
		_, err := s.InsertLink(ctx, &types.Link{SourceID: pair[0], TargetID: pair[1]})
		require.NoError(t, err)
	}

	removed, err := s.DeleteLinksTouchingNode(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	links, err := s.LoadAllLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.False(t, links[0].Touches(ids[0]))

	removed, err = s.DeleteLinksTouchingNode(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
