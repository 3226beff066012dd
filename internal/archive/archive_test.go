package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func zipEntries(t *testing.T, file string) []string {
	t.Helper()
	zr, err := zip.OpenReader(file)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"project.db":     "sqlite bytes",
		"metadata.json":  `{"ProjectName":"demo"}`,
		"project.db-wal": "",
		"project.db-shm": "shm",
	})
	require.NoError(t, os.Mkdir(filepath.Join(src, "subdir"), 0o755))

	dest := filepath.Join(t.TempDir(), "demo"+Extension)
	require.NoError(t, Pack(src, dest))

	assert.Equal(t, []string{"metadata.json", "project.db"}, zipEntries(t, dest))

	out := filepath.Join(t.TempDir(), "work")
	require.NoError(t, Unpack(dest, out))

	got, err := os.ReadFile(filepath.Join(out, "project.db"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(got))
	got, err = os.ReadFile(filepath.Join(out, "metadata.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ProjectName":"demo"}`, string(got))
}

func TestPack_ReplacesExistingFile(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"project.db": "v2"})

	destDir := t.TempDir()
	dest := filepath.Join(destDir, "p.nf")
	require.NoError(t, os.WriteFile(dest, []byte("old contents"), 0o644))

	require.NoError(t, Pack(src, dest))
	assert.Equal(t, []string{"project.db"}, zipEntries(t, dest))

	leftovers, err := filepath.Glob(filepath.Join(destDir, ".nf-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPack_FailureKeepsPreviousFile(t *testing.T) {
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "p.nf")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	err := Pack(filepath.Join(t.TempDir(), "missing"), dest)
	require.ErrorIs(t, err, types.ErrStorageIO)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

func TestUnpack_Errors(t *testing.T) {
	dir := t.TempDir()
	notZip := filepath.Join(dir, "garbage.nf")
	require.NoError(t, os.WriteFile(notZip, []byte("this is not a zip archive"), 0o644))

	slip := filepath.Join(dir, "slip.nf")
	f, err := os.Create(slip)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escaped.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("gotcha"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "nope.nf"), types.ErrFileNotFound},
		{"not a zip", notZip, types.ErrArchiveCorrupt},
		{"entry escapes destination", slip, types.ErrArchiveCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "work")
			assert.ErrorIs(t, Unpack(tt.file, dest), tt.wantErr)

			_, err := os.Stat(filepath.Join(filepath.Dir(dest), "escaped.txt"))
			assert.True(t, errors.Is(err, os.ErrNotExist), "no entry may be written outside dest")
		})
	}
}

func TestUnpack_OverwritesExisting(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"project.db": "fresh"})
	file := filepath.Join(t.TempDir(), "p.nf")
	require.NoError(t, Pack(src, file))

	dest := t.TempDir()
	writeFiles(t, dest, map[string]string{"project.db": "stale data that is longer"})

	require.NoError(t, Unpack(file, dest))
	got, err := os.ReadFile(filepath.Join(dest, "project.db"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestUnpack_RetriesOnce(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"project.db": "db", "metadata.json": "{}"})
	file := filepath.Join(t.TempDir(), "p.nf")
	require.NoError(t, Pack(src, file))

	injected := errors.New("transient write failure")

	tests := []struct {
		name      string
		failCalls int
		wantErr   bool
	}{
		{"first attempt fails then succeeds", 1, false},
		{"both attempts fail", 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			openFile = func(name string, flag int, perm os.FileMode) (*os.File, error) {
				calls++
				if calls <= tt.failCalls {
					return nil, injected
				}
				return os.OpenFile(name, flag, perm)
			}
			t.Cleanup(func() { openFile = os.OpenFile })

			dest := filepath.Join(t.TempDir(), "work")
			err := Unpack(file, dest)
			if tt.wantErr {
				require.ErrorIs(t, err, injected)
				assert.ErrorIs(t, err, types.ErrStorageIO)
				return
			}
			require.NoError(t, err)
			got, err := os.ReadFile(filepath.Join(dest, "project.db"))
			require.NoError(t, err)
			assert.Equal(t, "db", string(got))
		})
	}
}
