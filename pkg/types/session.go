package types

import "context"

// SessionState is the lifecycle state of a project session.
type SessionState string

// Session states.
const (
	StateClosed      SessionState = "closed"
	StateOpenUnsaved SessionState = "open_unsaved"
	StateOpenSaved   SessionState = "open_saved"
)

// Entity kinds used in mutation results.
const (
	KindNode        = "node"
	KindLink        = "link"
	KindProperty    = "property"
	KindProcessType = "process_type"
	KindMetadata    = "metadata"
)

// EntityRef identifies one entity touched by a mutation.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// MutationResult tells a front end which entities a core operation added,
// updated or removed, so it can refresh its presentation objects. It
// replaces change notifications.
type MutationResult struct {
	Added   []EntityRef `json:"added,omitempty"`
	Updated []EntityRef `json:"updated,omitempty"`
	Removed []EntityRef `json:"removed,omitempty"`
}

// Empty reports whether the mutation touched nothing.
func (m MutationResult) Empty() bool {
	return len(m.Added) == 0 && len(m.Updated) == 0 && len(m.Removed) == 0
}

// LinkOutcome is the result of a link request.
type LinkOutcome string

// Link outcomes. A rejected duplicate is a normal outcome, not an error.
const (
	LinkCreated           LinkOutcome = "created"
	LinkRejectedDuplicate LinkOutcome = "rejected_duplicate"
)

// Snapshot is a full copy of a project graph.
type Snapshot struct {
	Nodes        []Node         `json:"nodes"`
	Links        []Link         `json:"links"`
	Properties   []PropertyItem `json:"properties"`
	ProcessTypes []ProcessType  `json:"process_types"`
}

// OpenResult is returned by Session.OpenProject. Warnings carry recoverable
// problems found while loading (missing metadata, dropped dangling links);
// each wraps one of the standard errors.
type OpenResult struct {
	Snapshot
	Metadata ProjectMetadata `json:"metadata"`
	Warnings []error         `json:"-"`
}

// Session is the collaborator interface exposed to front ends. It owns the
// open project's working store and in-memory graph.
type Session interface {
	NewProject(ctx context.Context) error
	OpenProject(ctx context.Context, path string) (*OpenResult, error)
	SaveProject(ctx context.Context, path string) (MutationResult, error)
	Close() error

	AddNode(ctx context.Context, n Node) (int64, MutationResult, error)
	UpdateNode(ctx context.Context, n Node) (MutationResult, error)
	DeleteNode(ctx context.Context, id int64) (MutationResult, error)

	AddLink(ctx context.Context, sourceID, targetID int64) (LinkOutcome, MutationResult, error)
	DeleteLinksForNode(ctx context.Context, nodeID int64) (MutationResult, error)

	AddProperty(ctx context.Context, p PropertyItem) (int64, MutationResult, error)
	UpdateProperty(ctx context.Context, p PropertyItem) (MutationResult, error)
	DeleteProperty(ctx context.Context, id int64) (MutationResult, error)

	Nodes() []Node
	Links() []Link
	Properties() []PropertyItem
	ProcessTypes() []ProcessType
	Snapshot() Snapshot
	Metadata() ProjectMetadata
	SetDescription(ctx context.Context, description string) (MutationResult, error)

	State() SessionState
	Path() string
	Dirty() bool
	Title() string
}
