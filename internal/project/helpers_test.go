package project

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// stepClock returns a time source that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newTestSession(t *testing.T, cfg types.Config, opts ...Option) *Session {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	opts = append([]Option{WithClock(stepClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)))}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newOpenSession(t *testing.T, cfg types.Config, opts ...Option) *Session {
	t.Helper()
	s := newTestSession(t, cfg, opts...)
	require.NoError(t, s.NewProject(context.Background()))
	return s
}

func addNode(t *testing.T, s *Session, title string) int64 {
	t.Helper()
	id, _, err := s.AddNode(context.Background(), types.Node{Title: title})
	require.NoError(t, err)
	return id
}

func projectPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".nf")
}
