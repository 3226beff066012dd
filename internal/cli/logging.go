package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for log_file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the command logger. With log_file set records go to a
// rotating JSON file; otherwise to stderr, as text on a terminal and JSON
// elsewhere.
func newLogger(s settings, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if s.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   s.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		return slog.New(slog.NewJSONHandler(lj, opts)), lj, nil
	}

	if isTerminal(stderr) {
		return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}, nil
	}
	return slog.New(slog.NewJSONHandler(stderr, opts)), nopCloser{}, nil
}

func parseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		s = defaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
