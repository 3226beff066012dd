// Package cli implements the nodeflow command-line interface. Every
// mutating command opens a project file into a session, applies one
// operation and saves the file back.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nodeflow/internal/paths"
	"github.com/mesh-intelligence/nodeflow/pkg/nodeflow"
	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state resolved before a subcommand
// runs.
type app struct {
	configDir string
	jsonMode  bool

	settings  settings
	logger    *slog.Logger
	logCloser io.Closer
}

// NewRootCmd creates the top-level "nodeflow" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:   "nodeflow",
		Short: "Edit NodeFlow project graphs",
		Long:  "nodeflow creates, inspects and edits NodeFlow project files (*.nf):\nnodes, links between them and project properties.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newNewCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newNodeCmd(a))
	root.AddCommand(newLinkCmd(a))
	root.AddCommand(newPropertyCmd(a))
	root.AddCommand(newDescribeCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps storage failures to exitSysError and everything else that
// failed to exitUserError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrStorageIO), errors.Is(err, types.ErrStorageInit):
		return exitSysError
	default:
		return exitUserError
	}
}

// setup resolves the config directory, loads config.yaml and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = dir

	v, err := loadConfig(dir)
	if err != nil {
		return err
	}
	a.settings = settingsFrom(v)

	logger, closer, err := newLogger(a.settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	a.logCloser = closer
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

// newSession returns a closed session configured from the loaded settings.
func (a *app) newSession() (types.Session, error) {
	base, err := paths.ResolveWorkBase(a.settings.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	cfg := types.Config{
		WorkDir:        base,
		AllowSelfLoops: a.settings.AllowSelfLoops,
	}
	return nodeflow.NewSession(cfg,
		nodeflow.WithLogger(a.logger),
		nodeflow.WithObserver(nodeflow.NewLogObserver(a.logger)),
	)
}
