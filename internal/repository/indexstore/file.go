package indexstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// File stores the snapshot as a pretty-printed JSON file.
type File struct {
	path string
}

// NewFile creates a file-backed snapshot store.
func NewFile(path string) *File {
	return &File{path: path}
}

// Location returns the snapshot file path.
func (f *File) Location() string {
	return f.path
}

// Load reads the snapshot. Returns ErrNotFound when the file does not exist.
func (f *File) Load(_ context.Context) (catalog.Index, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog.Index{}, ErrNotFound
		}
		return catalog.Index{}, fmt.Errorf("read index %s: %w", f.path, err)
	}
	return decode(data)
}

// Save writes the snapshot, creating parent directories as needed.
func (f *File) Save(_ context.Context, index catalog.Index) error {
	data, err := encode(index)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write index %s: %w", f.path, err)
	}
	return nil
}
