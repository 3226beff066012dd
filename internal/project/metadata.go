package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// MetadataFileName is the metadata document inside a working directory and
// a packed project file.
const MetadataFileName = "metadata.json"

// metadataTimeLayouts are accepted on read. Files written by older desktop
// builds carry local timestamps without a zone offset.
var metadataTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// metadataDocument is the on-disk shape of ProjectMetadata. Dates are read
// as text so zone-less timestamps still load.
type metadataDocument struct {
	ProjectName      string `json:"ProjectName"`
	Description      string `json:"Description,omitempty"`
	CreationDate     string `json:"CreationDate"`
	LastModifiedDate string `json:"LastModifiedDate"`
}

// readMetadata loads the metadata document from dir. A missing or
// unreadable document yields DefaultMetadata(now) together with a non-nil
// warning describing why. An absent or empty date reads as now and leaves
// the other fields as written.
func readMetadata(dir string, now time.Time) (types.ProjectMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return types.DefaultMetadata(now), fmt.Errorf("%s missing, using defaults: %w", MetadataFileName, types.ErrFileNotFound)
	}
	if err != nil {
		return types.DefaultMetadata(now), fmt.Errorf("reading %s, using defaults: %w: %w", MetadataFileName, types.ErrStorageIO, err)
	}

	var doc metadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.DefaultMetadata(now), fmt.Errorf("parsing %s, using defaults: %w: %w", MetadataFileName, types.ErrArchiveCorrupt, err)
	}
	created, err := parseMetadataTime(doc.CreationDate, now)
	if err != nil {
		return types.DefaultMetadata(now), fmt.Errorf("parsing %s CreationDate, using defaults: %w: %w", MetadataFileName, types.ErrArchiveCorrupt, err)
	}
	modified, err := parseMetadataTime(doc.LastModifiedDate, now)
	if err != nil {
		return types.DefaultMetadata(now), fmt.Errorf("parsing %s LastModifiedDate, using defaults: %w: %w", MetadataFileName, types.ErrArchiveCorrupt, err)
	}

	return types.ProjectMetadata{
		ProjectName:      doc.ProjectName,
		Description:      doc.Description,
		CreationDate:     created,
		LastModifiedDate: modified,
	}, nil
}

func parseMetadataTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	var lastErr error
	for _, layout := range metadataTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// writeMetadata replaces the metadata document in dir using the temp-file,
// fsync, rename pattern, so the document is written whole or not at all.
func writeMetadata(dir string, md types.ProjectMetadata) error {
	data, err := json.MarshalIndent(metadataDocument{
		ProjectName:      md.ProjectName,
		Description:      md.Description,
		CreationDate:     md.CreationDate.Format(time.RFC3339Nano),
		LastModifiedDate: md.LastModifiedDate.Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w: %w", types.ErrStorageIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata: %w: %w", types.ErrStorageIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w: %w", types.ErrStorageIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w: %w", types.ErrStorageIO, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, MetadataFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w: %w", types.ErrStorageIO, err)
	}
	return nil
}
