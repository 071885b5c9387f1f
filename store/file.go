package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileMedium persists the collection as a single JSON document. Saves write
// to a temporary file in the same directory and rename it over the previous
// snapshot, so readers never observe a half-written document.
type FileMedium struct {
	path string
}

// NewFileMedium creates a file medium at the given path. Parent directories
// are created on first save.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

// Load reads the snapshot. A missing file yields an empty collection without
// error; any other failure is reported so the caller can decide whether to
// start empty.
func (m *FileMedium) Load(_ context.Context) (Collection, error) {
	raw, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Collection{}, nil
	}
	if err != nil {
		return Collection{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var collection Collection
	if err := json.Unmarshal(raw, &collection); err != nil {
		return Collection{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return collection, nil
}

// Save atomically replaces the snapshot with the given collection.
func (m *FileMedium) Save(_ context.Context, collection Collection) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	raw, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

var _ Medium = (*FileMedium)(nil)
