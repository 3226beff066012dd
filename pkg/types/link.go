package types

import "time"

// Link is a dependency edge between two nodes. At the persistence boundary a
// link carries node identifiers only; endpoint objects are resolved by the
// session at the front-end boundary.
type Link struct {
	ID        int64     `json:"id"`
	SourceID  int64     `json:"source_id"`
	TargetID  int64     `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Touches reports whether nodeID is either endpoint of the link.
func (l Link) Touches(nodeID int64) bool {
	return l.SourceID == nodeID || l.TargetID == nodeID
}

// IsSelfLoop reports whether the link starts and ends at the same node.
func (l Link) IsSelfLoop() bool {
	return l.SourceID == l.TargetID
}

// Pair returns the unordered endpoint pair of the link. Links are directed,
// but duplicate detection treats {a,b} and {b,a} as the same edge.
func (l Link) Pair() Pair {
	return NewPair(l.SourceID, l.TargetID)
}

// Pair is an unordered pair of node identifiers, normalized so that Low <= High.
type Pair struct {
	Low  int64
	High int64
}

// NewPair builds the normalized pair for a and b.
func NewPair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}
