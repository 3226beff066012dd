// Package archive packs a working directory into a NodeFlow project file
// and unpacks a project file into a working directory. A project file is a
// zip archive whose entries are the files of the working directory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// Extension is the file extension of packed projects.
const Extension = ".nf"

// sidecarSuffixes mark SQLite journal files that never belong in a project
// file; the store is checkpointed before packing.
var sidecarSuffixes = []string{"-wal", "-shm", "-journal"}

// openFile creates extracted files. Tests replace it to inject failures.
var openFile = os.OpenFile

// Pack writes every regular file directly inside sourceDir into a zip
// archive at destFile, replacing any previous file. The archive is written
// to a temp file next to destFile, synced, then renamed into place, so
// destFile is either the old project or the complete new one.
func Pack(sourceDir, destFile string) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w: %w", sourceDir, types.ErrStorageIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destFile), ".nf-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w: %w", types.ErrStorageIO, err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w: %w", step, types.ErrStorageIO, err)
	}

	zw := zip.NewWriter(tmp)
	// os.ReadDir returns entries sorted by name.
	for _, e := range entries {
		if !e.Type().IsRegular() || isSidecar(e.Name()) {
			continue
		}
		if err := addFile(zw, sourceDir, e); err != nil {
			return fail("adding "+e.Name(), err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail("finishing archive", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w: %w", types.ErrStorageIO, err)
	}
	if err := os.Rename(tmpName, destFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w: %w", types.ErrStorageIO, err)
	}
	return nil
}

func addFile(zw *zip.Writer, dir string, e fs.DirEntry) error {
	info, err := e.Info()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = e.Name()
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(dir, e.Name()))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func isSidecar(name string) bool {
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Unpack extracts sourceFile into destDir, overwriting files already there.
//
// Returns ErrFileNotFound when sourceFile does not exist and
// ErrArchiveCorrupt when it is not a zip archive or an entry would land
// outside destDir. An extraction failure is retried once after clearing
// destDir; a second failure is returned.
func Unpack(sourceFile, destDir string) error {
	if _, err := os.Stat(sourceFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrFileNotFound, sourceFile)
		}
		return fmt.Errorf("stat %s: %w: %w", sourceFile, types.ErrStorageIO, err)
	}

	zr, err := zip.OpenReader(sourceFile)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrArchiveCorrupt, sourceFile, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if _, err := entryPath(destDir, f.Name); err != nil {
			return err
		}
	}

	if err := extract(zr, destDir); err != nil {
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			return fmt.Errorf("clearing %s for retry: %w: %w", destDir, types.ErrStorageIO, rmErr)
		}
		if err := extract(zr, destDir); err != nil {
			return err
		}
	}
	return nil
}

// entryPath resolves an entry name inside destDir, rejecting names that
// are absolute or climb out of it.
func entryPath(destDir, name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") ||
		filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: entry %q escapes destination", types.ErrArchiveCorrupt, name)
	}
	return filepath.Join(destDir, filepath.FromSlash(clean)), nil
}

func extract(zr *zip.ReadCloser, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w: %w", destDir, types.ErrStorageIO, err)
	}
	for _, f := range zr.File {
		target, err := entryPath(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w: %w", target, types.ErrStorageIO, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w: %w", filepath.Dir(target), types.ErrStorageIO, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening entry %s: %w", types.ErrArchiveCorrupt, f.Name, err)
	}
	defer rc.Close()

	out, err := openFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w: %w", target, types.ErrStorageIO, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: reading entry %s: %w", types.ErrArchiveCorrupt, f.Name, err)
		}
		return fmt.Errorf("writing %s: %w: %w", target, types.ErrStorageIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w: %w", target, types.ErrStorageIO, err)
	}
	return nil
}
