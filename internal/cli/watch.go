package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// defaultDebounce coalesces the create and write events of one save.
const defaultDebounce = 200 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Print a project and reprint it whenever the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			show := func() error {
				out, err := a.showProject(cmd, path)
				if err != nil {
					// A half-written or removed file is reported and watching goes on.
					a.logger.WarnContext(cmd.Context(), "reload failed", "path", path, "error", err.Error())
					return nil
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			if err := show(); err != nil {
				return err
			}
			return watchFile(cmd.Context(), path, debounce, show)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before reloading")
	return cmd
}

// watchFile calls onChange after path is created, written or renamed into
// place, once per burst of events separated by less than debounce. It
// watches the parent directory because saves replace the file. It returns
// when ctx is done or onChange fails.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)

		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}
