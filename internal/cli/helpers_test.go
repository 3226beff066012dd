package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliEnv runs nodeflow commands against a private config dir and work dir.
type cliEnv struct {
	t         *testing.T
	configDir string
	dir       string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("NODEFLOW_WORK_DIR", t.TempDir())
	return &cliEnv{t: t, configDir: t.TempDir(), dir: t.TempDir()}
}

// path returns a project path inside the env's data dir.
func (e *cliEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *cliEnv) writeConfig(yaml string) {
	e.t.Helper()
	require.NoError(e.t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(yaml), 0o644))
}

// run executes one command line and returns stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", e.configDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun executes one command line that is expected to succeed.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "nodeflow %v", args)
	return out
}
