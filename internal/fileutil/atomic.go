// Package fileutil provides filesystem helpers for state files under the
// polywallet home directory.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// DirPerm is the permission used for directories created under the home dir.
const DirPerm os.FileMode = 0o700

// WriteAtomic writes data to path through a synced temp file and a rename,
// creating the parent directory when missing.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // path is built from the home dir
		return fmt.Errorf("renaming temp file: %w", err)
	}

	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // dir derives from path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}

// ReadIfExists returns the file contents, or nil with no error when the
// file does not exist.
func ReadIfExists(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the home dir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
