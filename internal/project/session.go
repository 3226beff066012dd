// Package project implements the NodeFlow project session: the lifecycle
// of one open project (new, open, save, close), the in-memory graph and the
// invariants every mutation must keep.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/nodeflow/internal/archive"
	"github.com/mesh-intelligence/nodeflow/internal/paths"
	"github.com/mesh-intelligence/nodeflow/internal/sqlite"
	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// AppName prefixes window titles.
const AppName = "NodeFlow"

// UntitledName stands in for the project name until the first save.
const UntitledName = "Untitled"

var _ types.Session = (*Session)(nil)

// Session owns the working directory, working store and in-memory graph of
// at most one open project. Methods are safe for concurrent use but are
// serialized.
type Session struct {
	mu       sync.Mutex
	cfg      types.Config
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	state   types.SessionState
	workDir string
	store   *sqlite.Store
	graph   *Graph
	meta    types.ProjectMetadata
	path    string
	dirty   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for cleanup warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the time source for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a closed session.
func New(cfg types.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Session{
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		observer: NoopObserver{},
		now:      time.Now,
		state:    types.StateClosed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.meta = types.DefaultMetadata(s.now())
	return s, nil
}

// observe reports one finished operation.
func (s *Session) observe(ctx context.Context, op string, startedAt time.Time, fields map[string]any, err error) {
	s.observer.ObserveOperation(ctx, Event{
		Operation: op,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

// NewProject discards any open project and starts an empty one with the
// default process types. The previous project file is never touched.
func (s *Session) NewProject(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "new_project", startedAt, nil, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	if err = s.openWorkDirLocked(ctx); err != nil {
		s.resetLocked()
		return err
	}

	pts := types.DefaultProcessTypes()
	for i := range pts {
		if _, err = s.store.InsertProcessType(ctx, &pts[i]); err != nil {
			s.discardLocked()
			s.resetLocked()
			return fmt.Errorf("seeding process types: %w", err)
		}
	}

	s.graph = newGraph()
	s.graph.processTypes = pts
	s.meta = types.DefaultMetadata(s.now())
	s.state = types.StateOpenUnsaved
	s.path = ""
	s.dirty = false
	return nil
}

// OpenProject discards any open project and loads the project file at path.
//
// Recoverable problems (missing metadata, links with a missing endpoint,
// repeated link pairs) are reported in OpenResult.Warnings and do not fail
// the open. A missing or corrupt file fails the open and leaves the session
// closed.
func (s *Session) OpenProject(ctx context.Context, path string) (result *OpenResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"path": path}
	defer func() { s.observe(ctx, "open_project", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.resetLocked()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	workDir, err := paths.NewWorkDir(s.cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorageInit, err)
	}
	s.workDir = workDir
	if err = archive.Unpack(abs, workDir); err != nil {
		s.discardLocked()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if s.store, err = sqlite.Open(ctx, workDir); err == nil {
		err = s.store.CreateSchema(ctx)
	}
	if err != nil {
		s.discardLocked()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var warnings []error
	legacy, isLegacy, err := s.store.ImportLegacyTables(ctx)
	if err != nil {
		s.discardLocked()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if isLegacy {
		warnings = append(warnings, fmt.Errorf("%w: converted %d nodes, %d links, %d properties; save to rewrite the file",
			types.ErrLegacyFormat, legacy.Nodes, legacy.Links, legacy.Properties))
	}
	meta, warn := readMetadata(workDir, s.now())
	if warn != nil {
		warnings = append(warnings, warn)
	}

	snap, err := s.loadSnapshotLocked(ctx)
	if err != nil {
		s.discardLocked()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if len(snap.ProcessTypes) == 0 {
		snap.ProcessTypes = types.DefaultProcessTypes()
		for i := range snap.ProcessTypes {
			if _, err = s.store.InsertProcessType(ctx, &snap.ProcessTypes[i]); err != nil {
				s.discardLocked()
				return nil, fmt.Errorf("seeding process types: %w", err)
			}
		}
	}

	graph, dropped := loadGraph(snap, s.cfg.AllowSelfLoops)
	if len(dropped) > 0 {
		// Bring the store in line with what the graph kept.
		if err = s.store.ReplaceAllData(ctx, graph.Snapshot()); err != nil {
			s.discardLocked()
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		warnings = append(warnings, dropped...)
	}

	s.graph = graph
	s.meta = meta
	s.path = abs
	s.state = types.StateOpenSaved
	s.dirty = false
	if len(dropped) > 0 || isLegacy {
		s.markDirtyLocked()
	}

	for _, w := range warnings {
		s.logger.WarnContext(ctx, "project loaded with warning", "path", abs, "warning", w.Error())
	}
	fields["nodes"] = len(snap.Nodes)
	fields["links"] = len(graph.links)
	fields["warnings"] = len(warnings)

	return &OpenResult{
		Snapshot: graph.Snapshot(),
		Metadata: meta,
		Warnings: warnings,
	}, nil
}

// OpenResult aliases the public result type.
type OpenResult = types.OpenResult

func (s *Session) loadSnapshotLocked(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	var err error
	if snap.Nodes, err = s.store.LoadAllNodes(ctx); err != nil {
		return snap, err
	}
	if snap.Links, err = s.store.LoadAllLinks(ctx); err != nil {
		return snap, err
	}
	if snap.Properties, err = s.store.LoadAllProperties(ctx); err != nil {
		return snap, err
	}
	if snap.ProcessTypes, err = s.store.LoadAllProcessTypes(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// SaveProject writes the open project to path.
//
// The working store is replaced with the in-memory graph in one
// transaction, the metadata document is rewritten, and the working
// directory is packed over path. If the store cannot be replaced nothing is
// packed; if packing fails the previous file at path is left intact and the
// session stays dirty.
func (s *Session) SaveProject(ctx context.Context, path string) (result types.MutationResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"path": path}
	defer func() { s.observe(ctx, "save_project", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return result, fmt.Errorf("resolving %s: %w", path, err)
	}

	if dups := s.graph.duplicatePropertyNames(); len(dups) > 0 {
		return result, fmt.Errorf("property names %q: %w", dups, types.ErrDuplicateName)
	}
	if err = s.store.ReplaceAllData(ctx, s.graph.Snapshot()); err != nil {
		return result, fmt.Errorf("saving %s: %w", path, err)
	}

	meta := s.meta
	meta.ProjectName = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	meta.LastModifiedDate = s.now()
	// From here on the working directory no longer matches the file on disk.
	if err = writeMetadata(s.workDir, meta); err != nil {
		s.markDirtyLocked()
		return result, fmt.Errorf("saving %s: %w", path, err)
	}
	if err = s.store.Checkpoint(ctx); err != nil {
		s.markDirtyLocked()
		return result, fmt.Errorf("saving %s: %w", path, err)
	}
	if err = archive.Pack(s.workDir, abs); err != nil {
		s.markDirtyLocked()
		return result, fmt.Errorf("saving %s: %w", path, err)
	}

	s.meta = meta
	s.path = abs
	s.state = types.StateOpenSaved
	s.dirty = false
	fields["nodes"] = len(s.graph.nodes)
	fields["links"] = len(s.graph.links)

	result.Updated = []types.EntityRef{{Kind: types.KindMetadata}}
	return result, nil
}

// Close discards the open project and its working directory. Cleanup
// failures are logged, not returned. Close is idempotent.
func (s *Session) Close() error {
	startedAt := time.Now()
	s.mu.Lock()
	wasOpen := s.state != types.StateClosed
	s.discardLocked()
	s.resetLocked()
	s.mu.Unlock()

	if wasOpen {
		s.observe(context.Background(), "close_project", startedAt, nil, nil)
	}
	return nil
}

// AddNode stores a new node and returns its identifier. A zero
// ProcessTypeID selects the Planned process type.
func (s *Session) AddNode(ctx context.Context, n types.Node) (id int64, result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "add_node", startedAt, map[string]any{"node_id": id}, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return 0, result, err
	}
	n.ID = 0
	if n.ProcessTypeID == 0 {
		n.ProcessTypeID = types.ProcessPlanned
	}
	if err = s.checkProcessTypeLocked(n.ProcessTypeID); err != nil {
		return 0, result, err
	}
	if id, err = s.store.InsertNode(ctx, &n); err != nil {
		return 0, result, err
	}
	s.graph.putNode(n)
	s.markDirtyLocked()

	result.Added = []types.EntityRef{{Kind: types.KindNode, ID: id}}
	return id, result, nil
}

// UpdateNode replaces the stored fields of node n.ID.
func (s *Session) UpdateNode(ctx context.Context, n types.Node) (result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "update_node", startedAt, map[string]any{"node_id": n.ID}, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.graph.Node(n.ID) == nil {
		return result, fmt.Errorf("node %d: %w", n.ID, types.ErrNotFound)
	}
	if n.ProcessTypeID == 0 {
		n.ProcessTypeID = types.ProcessPlanned
	}
	if err = s.checkProcessTypeLocked(n.ProcessTypeID); err != nil {
		return result, err
	}
	if err = s.store.UpdateNode(ctx, n); err != nil {
		return result, err
	}
	s.graph.putNode(n)
	s.markDirtyLocked()

	result.Updated = []types.EntityRef{{Kind: types.KindNode, ID: n.ID}}
	return result, nil
}

// DeleteNode removes the node with id and every link touching it.
func (s *Session) DeleteNode(ctx context.Context, id int64) (result types.MutationResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"node_id": id}
	defer func() { s.observe(ctx, "delete_node", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.graph.Node(id) == nil {
		return result, fmt.Errorf("node %d: %w", id, types.ErrNotFound)
	}
	if _, err = s.store.DeleteNodeWithLinks(ctx, id); err != nil {
		return result, err
	}
	for _, l := range s.graph.removeLinksTouching(id) {
		result.Removed = append(result.Removed, types.EntityRef{Kind: types.KindLink, ID: l.ID})
	}
	s.graph.removeNode(id)
	s.markDirtyLocked()
	fields["links_removed"] = len(result.Removed)

	result.Removed = append(result.Removed, types.EntityRef{Kind: types.KindNode, ID: id})
	return result, nil
}

// AddLink connects sourceID to targetID. A request for a pair that is
// already linked, in either direction, returns LinkRejectedDuplicate and
// changes nothing.
func (s *Session) AddLink(ctx context.Context, sourceID, targetID int64) (outcome types.LinkOutcome, result types.MutationResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"source_id": sourceID, "target_id": targetID}
	defer func() {
		fields["outcome"] = string(outcome)
		s.observe(ctx, "add_link", startedAt, fields, err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return "", result, err
	}
	for _, id := range []int64{sourceID, targetID} {
		if s.graph.Node(id) == nil {
			return "", result, fmt.Errorf("link endpoint node %d: %w", id, types.ErrNotFound)
		}
	}
	if sourceID == targetID && !s.cfg.AllowSelfLoops {
		return "", result, fmt.Errorf("node %d: %w", sourceID, types.ErrSelfLoop)
	}
	if s.graph.hasPair(sourceID, targetID) {
		return types.LinkRejectedDuplicate, result, nil
	}

	l := types.Link{SourceID: sourceID, TargetID: targetID, CreatedAt: s.now().UTC()}
	if _, err = s.store.InsertLink(ctx, &l); err != nil {
		return "", result, err
	}
	s.graph.putLink(l)
	s.markDirtyLocked()

	result.Added = []types.EntityRef{{Kind: types.KindLink, ID: l.ID}}
	return types.LinkCreated, result, nil
}

// DeleteLinksForNode removes every link touching nodeID and keeps the node.
func (s *Session) DeleteLinksForNode(ctx context.Context, nodeID int64) (result types.MutationResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"node_id": nodeID}
	defer func() { s.observe(ctx, "delete_links_for_node", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.graph.Node(nodeID) == nil {
		return result, fmt.Errorf("node %d: %w", nodeID, types.ErrNotFound)
	}
	if _, err = s.store.DeleteLinksTouchingNode(ctx, nodeID); err != nil {
		return result, err
	}
	for _, l := range s.graph.removeLinksTouching(nodeID) {
		result.Removed = append(result.Removed, types.EntityRef{Kind: types.KindLink, ID: l.ID})
	}
	if len(result.Removed) > 0 {
		s.markDirtyLocked()
	}
	fields["links_removed"] = len(result.Removed)
	return result, nil
}

// AddProperty stores a new property item and returns its identifier.
func (s *Session) AddProperty(ctx context.Context, p types.PropertyItem) (id int64, result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "add_property", startedAt, map[string]any{"name": p.Name}, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return 0, result, err
	}
	if err = p.Validate(); err != nil {
		return 0, result, err
	}
	if s.graph.propertyNameTaken(p.Name, 0) {
		return 0, result, fmt.Errorf("property %q: %w", p.Name, types.ErrDuplicateName)
	}
	p.ID = 0
	if id, err = s.store.InsertProperty(ctx, &p); err != nil {
		return 0, result, err
	}
	s.graph.putProperty(p)
	s.markDirtyLocked()

	result.Added = []types.EntityRef{{Kind: types.KindProperty, ID: id}}
	return id, result, nil
}

// UpdateProperty replaces property item p.ID.
func (s *Session) UpdateProperty(ctx context.Context, p types.PropertyItem) (result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "update_property", startedAt, map[string]any{"property_id": p.ID}, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.graph.propertyIndex(p.ID) < 0 {
		return result, fmt.Errorf("property %d: %w", p.ID, types.ErrNotFound)
	}
	if err = p.Validate(); err != nil {
		return result, err
	}
	if s.graph.propertyNameTaken(p.Name, p.ID) {
		return result, fmt.Errorf("property %q: %w", p.Name, types.ErrDuplicateName)
	}
	if err = s.store.UpdateProperty(ctx, p); err != nil {
		return result, err
	}
	s.graph.putProperty(p)
	s.markDirtyLocked()

	result.Updated = []types.EntityRef{{Kind: types.KindProperty, ID: p.ID}}
	return result, nil
}

// DeleteProperty removes property item id.
func (s *Session) DeleteProperty(ctx context.Context, id int64) (result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "delete_property", startedAt, map[string]any{"property_id": id}, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.graph.propertyIndex(id) < 0 {
		return result, fmt.Errorf("property %d: %w", id, types.ErrNotFound)
	}
	if err = s.store.DeleteProperty(ctx, id); err != nil {
		return result, err
	}
	s.graph.removeProperty(id)
	s.markDirtyLocked()

	result.Removed = []types.EntityRef{{Kind: types.KindProperty, ID: id}}
	return result, nil
}

// SetDescription changes the project description. It is persisted by the
// next save.
func (s *Session) SetDescription(ctx context.Context, description string) (result types.MutationResult, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "set_description", startedAt, nil, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.requireOpenLocked(); err != nil {
		return result, err
	}
	if s.meta.Description == description {
		return result, nil
	}
	s.meta.Description = description
	s.markDirtyLocked()

	result.Updated = []types.EntityRef{{Kind: types.KindMetadata}}
	return result, nil
}

// Nodes returns the open project's nodes ordered by id.
func (s *Session) Nodes() []types.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return []types.Node{}
	}
	return s.graph.Nodes()
}

// Links returns the open project's links.
func (s *Session) Links() []types.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return []types.Link{}
	}
	return s.graph.Links()
}

// ResolvedLinks returns every link with its endpoint nodes attached.
func (s *Session) ResolvedLinks() ([]ResolvedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return nil, err
	}
	return s.graph.resolveAll()
}

// Properties returns the open project's property items.
func (s *Session) Properties() []types.PropertyItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return []types.PropertyItem{}
	}
	return s.graph.Properties()
}

// ProcessTypes returns the open project's process types.
func (s *Session) ProcessTypes() []types.ProcessType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return []types.ProcessType{}
	}
	return s.graph.ProcessTypes()
}

// Snapshot returns a copy of the whole graph.
func (s *Session) Snapshot() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return types.Snapshot{
			Nodes:        []types.Node{},
			Links:        []types.Link{},
			Properties:   []types.PropertyItem{},
			ProcessTypes: []types.ProcessType{},
		}
	}
	return s.graph.Snapshot()
}

// Metadata returns the project metadata.
func (s *Session) Metadata() types.ProjectMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// State returns the lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the file the project was last opened from or saved to.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// WorkDir returns the private working directory, or "" when closed.
func (s *Session) WorkDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workDir
}

// Title returns the window title: "NodeFlow - <name>", with a trailing "*"
// while changes are unsaved or the project has never been saved.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == types.StateClosed {
		return AppName
	}
	name := s.meta.ProjectName
	if name == "" || s.path == "" {
		name = UntitledName
	}
	title := AppName + " - " + name
	if s.state == types.StateOpenUnsaved {
		title += "*"
	}
	return title
}

// markDirtyLocked records that the graph has diverged from the last save.
func (s *Session) markDirtyLocked() {
	s.dirty = true
	s.state = types.StateOpenUnsaved
}

func (s *Session) requireOpenLocked() error {
	if s.state == types.StateClosed {
		return types.ErrSessionClosed
	}
	return nil
}

func (s *Session) checkProcessTypeLocked(id int64) error {
	if !s.graph.hasProcessType(id) {
		return fmt.Errorf("process type %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// openWorkDirLocked creates a fresh working directory with an empty schema.
func (s *Session) openWorkDirLocked(ctx context.Context) error {
	dir, err := paths.NewWorkDir(s.cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageInit, err)
	}
	s.workDir = dir

	store, err := sqlite.Open(ctx, dir)
	if err != nil {
		s.discardLocked()
		return err
	}
	s.store = store
	if err := store.CreateSchema(ctx); err != nil {
		s.discardLocked()
		return err
	}
	return nil
}

// discardLocked closes the store and removes the working directory.
// Failures are logged.
func (s *Session) discardLocked() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("closing working store", "dir", s.workDir, "error", err)
		}
		s.store = nil
	}
	if s.workDir != "" {
		if err := os.RemoveAll(s.workDir); err != nil {
			s.logger.Warn("removing working dir", "dir", s.workDir, "error", err)
		}
		s.workDir = ""
	}
}

// resetLocked returns the session to the closed state with default metadata.
func (s *Session) resetLocked() {
	s.state = types.StateClosed
	s.graph = nil
	s.meta = types.DefaultMetadata(s.now())
	s.path = ""
	s.dirty = false
}
