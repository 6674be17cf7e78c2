// Package jsonfile provides repositories persisted as JSON documents in
// the data directory. Every mutation rewrites the whole document through
// a temp file and rename.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// File names inside the data directory.
const (
	SessionsFile = "chat_history.json"
	ReportsFile  = "cve_reports.json"
)

// documentVersion is written to every new document.
const documentVersion = "1.0"

// readDocument decodes path into v. A missing file reports exists=false.
// Any other failure is wrapped with domain.ErrStorageRead.
func readDocument(path string, v any) (exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", domain.ErrStorageRead, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", domain.ErrStorageRead, path, err)
	}
	return true, nil
}

// writeDocument atomically replaces path with the JSON encoding of v.
// The previous document survives any failure.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorageWrite, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrStorageWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	return nil
}
