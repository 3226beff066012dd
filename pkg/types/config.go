package types

import (
	"errors"
	"path/filepath"
)

// Config holds the resolved settings for a project session.
type Config struct {
	// WorkDir is the base directory under which private working directories
	// are created. Empty means the platform temp directory.
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// AllowSelfLoops permits links whose source equals their target.
	AllowSelfLoops bool `json:"allow_self_loops" yaml:"allow_self_loops"`
}

// Config validation errors.
var (
	ErrWorkDirRelative = errors.New("work dir must be an absolute path")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.WorkDir != "" && !filepath.IsAbs(c.WorkDir) {
		return ErrWorkDirRelative
	}
	return nil
}
