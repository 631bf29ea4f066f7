// Package fsutil holds the durable file primitives shared by the product
// cache and the progress ledger.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/goalsync/internal/constants"
)

const (
	// DirPerm is used for state directories.
	DirPerm = 0o750
	// FilePerm is used for state documents.
	FilePerm = 0o600
)

// AtomicWrite writes data to a temp file beside path, fsyncs it, and renames
// it over path. A reader sees either the previous document or the new one.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + constants.TempFileSuffix
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Data must hit the disk before the rename publishes it.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// ReadIfExists returns the file contents, or nil with no error when the file
// does not exist yet.
func ReadIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
