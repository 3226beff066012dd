package project

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// ResolvedLink is a link with both endpoint nodes attached, for front ends
// that draw edges between node objects.
type ResolvedLink struct {
	types.Link
	Source *types.Node
	Target *types.Node
}

// Graph is the in-memory project graph. Links hold node identifiers only;
// endpoints are looked up on demand.
type Graph struct {
	nodes        map[int64]*types.Node
	links        []types.Link
	pairs        map[types.Pair]int64
	properties   []types.PropertyItem
	processTypes []types.ProcessType
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[int64]*types.Node),
		pairs: make(map[types.Pair]int64),
	}
}

// loadGraph builds a graph from stored rows. Links that reference a missing
// node, repeat an already loaded pair, or form a disallowed self-loop are
// dropped; each drop is reported as a warning.
func loadGraph(snap types.Snapshot, allowSelfLoops bool) (*Graph, []error) {
	g := newGraph()
	for _, n := range snap.Nodes {
		g.putNode(n)
	}
	g.properties = slices.Clone(snap.Properties)
	g.processTypes = slices.Clone(snap.ProcessTypes)

	var warnings []error
	for _, l := range snap.Links {
		switch {
		case g.nodes[l.SourceID] == nil || g.nodes[l.TargetID] == nil:
			warnings = append(warnings, fmt.Errorf("link %d (%d->%d) dropped: %w",
				l.ID, l.SourceID, l.TargetID, types.ErrDanglingLink))
		case l.IsSelfLoop() && !allowSelfLoops:
			warnings = append(warnings, fmt.Errorf("link %d on node %d dropped: %w",
				l.ID, l.SourceID, types.ErrSelfLoop))
		case g.hasPair(l.SourceID, l.TargetID):
			warnings = append(warnings, fmt.Errorf("link %d (%d->%d) dropped: duplicates link %d",
				l.ID, l.SourceID, l.TargetID, g.pairs[l.Pair()]))
		default:
			g.putLink(l)
		}
	}
	return g, warnings
}

// Node returns the node with id, or nil.
func (g *Graph) Node(id int64) *types.Node {
	return g.nodes[id]
}

// Nodes returns copies of all nodes ordered by id.
func (g *Graph) Nodes() []types.Node {
	ids := lo.Keys(g.nodes)
	slices.Sort(ids)
	return lo.Map(ids, func(id int64, _ int) types.Node {
		return g.nodes[id].Clone()
	})
}

// Links returns all links in insertion order.
func (g *Graph) Links() []types.Link {
	return slices.Clone(g.links)
}

// Properties returns all property items in insertion order.
func (g *Graph) Properties() []types.PropertyItem {
	return slices.Clone(g.properties)
}

// ProcessTypes returns the project's process types.
func (g *Graph) ProcessTypes() []types.ProcessType {
	return slices.Clone(g.processTypes)
}

// Snapshot returns a full copy of the graph.
func (g *Graph) Snapshot() types.Snapshot {
	return types.Snapshot{
		Nodes:        g.Nodes(),
		Links:        g.Links(),
		Properties:   g.Properties(),
		ProcessTypes: g.ProcessTypes(),
	}
}

// Resolve attaches the endpoint nodes to l. Returns ErrDanglingLink if
// either endpoint is missing.
func (g *Graph) Resolve(l types.Link) (ResolvedLink, error) {
	src, tgt := g.nodes[l.SourceID], g.nodes[l.TargetID]
	if src == nil || tgt == nil {
		return ResolvedLink{}, fmt.Errorf("link %d: %w", l.ID, types.ErrDanglingLink)
	}
	s, t := src.Clone(), tgt.Clone()
	return ResolvedLink{Link: l, Source: &s, Target: &t}, nil
}

func (g *Graph) hasPair(a, b int64) bool {
	_, ok := g.pairs[types.NewPair(a, b)]
	return ok
}

func (g *Graph) hasProcessType(id int64) bool {
	return lo.ContainsBy(g.processTypes, func(pt types.ProcessType) bool { return pt.ID == id })
}

func (g *Graph) putNode(n types.Node) {
	c := n.Clone()
	g.nodes[n.ID] = &c
}

func (g *Graph) removeNode(id int64) {
	delete(g.nodes, id)
}

func (g *Graph) putLink(l types.Link) {
	g.links = append(g.links, l)
	g.pairs[l.Pair()] = l.ID
}

// removeLinksTouching drops every link with nodeID as an endpoint and
// returns the removed links.
func (g *Graph) removeLinksTouching(nodeID int64) []types.Link {
	removed, kept := lo.FilterReject(g.links, func(l types.Link, _ int) bool {
		return l.Touches(nodeID)
	})
	for _, l := range removed {
		delete(g.pairs, l.Pair())
	}
	g.links = kept
	return removed
}

func (g *Graph) propertyIndex(id int64) int {
	_, idx, ok := lo.FindIndexOf(g.properties, func(p types.PropertyItem) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// propertyNameTaken reports whether another property than exceptID uses name.
func (g *Graph) propertyNameTaken(name string, exceptID int64) bool {
	return lo.ContainsBy(g.properties, func(p types.PropertyItem) bool {
		return p.Name == name && p.ID != exceptID
	})
}

func (g *Graph) putProperty(p types.PropertyItem) {
	if i := g.propertyIndex(p.ID); i >= 0 {
		g.properties[i] = p
		return
	}
	g.properties = append(g.properties, p)
}

func (g *Graph) removeProperty(id int64) {
	if i := g.propertyIndex(id); i >= 0 {
		g.properties = slices.Delete(g.properties, i, i+1)
	}
}

// duplicatePropertyNames lists names used by more than one property.
func (g *Graph) duplicatePropertyNames() []string {
	return lo.FindDuplicates(lo.Map(g.properties, func(p types.PropertyItem, _ int) string {
		return p.Name
	}))
}

// resolveAll resolves every link. Links are kept consistent on every
// mutation, so a resolve failure means the graph is corrupt.
func (g *Graph) resolveAll() ([]ResolvedLink, error) {
	out := make([]ResolvedLink, 0, len(g.links))
	for _, l := range g.links {
		rl, err := g.Resolve(l)
		if err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, nil
}
