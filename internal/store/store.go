// Package store persists footage records and identity registry entries as
// whole JSON array documents on local disk. Every mutation is a serialized
// read-modify-write of the full collection: an in-process mutex orders
// concurrent callers and a flock on the backing file keeps a second process
// from interleaving writes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when creating a record whose id already exists.
	ErrConflict = errors.New("record already exists")
)

// loadDocument reads a JSON array document. A missing, empty, or corrupt
// file yields an empty collection; corruption is logged, not surfaced.
func loadDocument[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("read store document", "path", path, "error", err)
		}
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("invalid JSON in store document, treating as empty", "path", path, "error", err)
		return nil
	}
	return items
}

// saveDocument replaces the whole document via a temp file and rename so a
// crash mid-write never leaves a truncated document behind.
func saveDocument[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store document: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp document: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store document: %w", err)
	}
	return nil
}
