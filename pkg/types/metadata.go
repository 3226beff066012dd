package types

import "time"

// ProjectMetadata is the sidecar document packaged next to the database.
// The JSON field names are part of the project file format.
type ProjectMetadata struct {
	ProjectName      string    `json:"ProjectName"`
	Description      string    `json:"Description,omitempty"`
	CreationDate     time.Time `json:"CreationDate"`
	LastModifiedDate time.Time `json:"LastModifiedDate"`
}

// DefaultMetadata returns metadata with an empty name and both timestamps
// set to now.
func DefaultMetadata(now time.Time) ProjectMetadata {
	return ProjectMetadata{
		CreationDate:     now,
		LastModifiedDate: now,
	}
}
