// Package paths resolves the configuration directory and the private
// working directories where open projects are unpacked.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// WorkRootName is the directory under the work base that holds one private
// working directory per session.
const WorkRootName = "NodeFlowTemp"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "NODEFLOW_CONFIG_DIR"
	EnvWorkDir   = "NODEFLOW_WORK_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	tempDir       func() string
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	tempDir:       os.TempDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/nodeflow (fallback ~/.config/nodeflow)
// macOS:   ~/Library/Application Support/nodeflow
// Windows: %APPDATA%/nodeflow
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "nodeflow"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "nodeflow"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "nodeflow"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > NODEFLOW_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveWorkBase returns the base directory for working directories:
// configValue > NODEFLOW_WORK_DIR env > the OS temp directory.
func ResolveWorkBase(configValue string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvWorkDir); env != "" {
		return filepath.Abs(env)
	}
	return platformDir.tempDir(), nil
}

// NewWorkDir creates a fresh, session-unique working directory
// <base>/NodeFlowTemp/<uuid> and returns its path. An empty base means the
// OS temp directory.
func NewWorkDir(base string) (string, error) {
	if base == "" {
		base = platformDir.tempDir()
	}
	dir := filepath.Join(base, WorkRootName, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating working dir: %w", err)
	}
	return dir, nil
}
