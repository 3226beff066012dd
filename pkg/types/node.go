package types

import "time"

// Node is a graph vertex representing one work item.
type Node struct {
	// ID is assigned by the working store on insert and never reused within
	// one project lifetime.
	ID int64 `json:"id"`

	// Title may be blank.
	Title string `json:"title"`

	// ProcessTypeID references a ProcessType of the open project.
	ProcessTypeID int64 `json:"process_type_id"`

	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Assignee string     `json:"assignee,omitempty"`

	// X and Y are canvas coordinates; there is no range constraint.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Path is an optional custom icon or file reference.
	Path string `json:"path,omitempty"`
}

// Clone returns a deep copy of the node, including its date pointers.
func (n Node) Clone() Node {
	c := n
	if n.Start != nil {
		s := *n.Start
		c.Start = &s
	}
	if n.End != nil {
		e := *n.End
		c.End = &e
	}
	return c
}

// ProcessType is a workflow status with its display color.
type ProcessType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	R    uint8  `json:"color_r"`
	G    uint8  `json:"color_g"`
	B    uint8  `json:"color_b"`
}

// Hex returns the color as a #rrggbb string.
func (p ProcessType) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, c := range []uint8{p.R, p.G, p.B} {
		b[1+i*2] = digits[c>>4]
		b[2+i*2] = digits[c&0x0f]
	}
	return string(b)
}

// Default process type identifiers seeded into every new project.
const (
	ProcessPlanned    int64 = 1
	ProcessInProgress int64 = 2
	ProcessDone       int64 = 3
	ProcessOnHold     int64 = 4
	ProcessBlocked    int64 = 5
	ProcessFailed     int64 = 6
)

// DefaultProcessTypes returns the process types seeded at new-project time.
// A fresh slice is returned on every call.
func DefaultProcessTypes() []ProcessType {
	return []ProcessType{
		{ID: ProcessPlanned, Name: "Planned", R: 128, G: 128, B: 128},
		{ID: ProcessInProgress, Name: "In progress", R: 255, G: 165, B: 0},
		{ID: ProcessDone, Name: "Done", R: 0, G: 128, B: 0},
		{ID: ProcessOnHold, Name: "On hold", R: 255, G: 255, B: 0},
		{ID: ProcessBlocked, Name: "Blocked", R: 255, G: 0, B: 0},
		{ID: ProcessFailed, Name: "Failed", R: 0, G: 0, B: 0},
	}
}
