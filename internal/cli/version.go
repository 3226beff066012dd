package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/internal/archive"
	"github.com/mesh-intelligence/nodeflow/internal/project"
	"github.com/mesh-intelligence/nodeflow/internal/sqlite"
	"github.com/mesh-intelligence/nodeflow/pkg/nodeflow"
)

const (
	modulePath       = "github.com/mesh-intelligence/nodeflow"
	sqliteModulePath = "modernc.org/sqlite"
)

// versionInfo describes the binary and the project file layout it writes.
type versionInfo struct {
	Version   string   `json:"version"`
	Module    string   `json:"module"`
	GoVersion string   `json:"go_version"`
	SQLite    string   `json:"sqlite_driver,omitempty"`
	Revision  string   `json:"revision,omitempty"`
	Extension string   `json:"file_extension"`
	Entries   []string `json:"file_entries"`
}

func currentVersion() versionInfo {
	info := versionInfo{
		Version:   nodeflow.Version,
		Module:    modulePath,
		GoVersion: runtime.Version(),
		Extension: archive.Extension,
		Entries:   []string{sqlite.DBFileName, project.MetadataFileName},
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, dep := range bi.Deps {
		if dep.Path == sqliteModulePath {
			info.SQLite = dep.Version
		}
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info.Revision = s.Value
		}
	}
	return info
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the nodeflow version and project file layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := currentVersion()
			w := cmd.OutOrStdout()
			if a.jsonMode {
				return writeJSON(w, info)
			}
			fmt.Fprintf(w, "nodeflow v%s\nmodule: %s\ngo: %s\n", info.Version, info.Module, info.GoVersion)
			if info.SQLite != "" {
				fmt.Fprintf(w, "sqlite driver: %s %s\n", sqliteModulePath, info.SQLite)
			}
			if info.Revision != "" {
				fmt.Fprintf(w, "revision: %s\n", info.Revision)
			}
			fmt.Fprintf(w, "project files: *%s holding %v\n", info.Extension, info.Entries)
			return nil
		},
	}
}
