// Package catalog stores the catalog source document on the local filesystem.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// File is a catalog source backed by a JSON document on disk.
type File struct {
	path string
}

// NewFile creates a file-backed catalog source.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the catalog file location.
func (f *File) Path() string {
	return f.path
}

// Read loads and decodes the catalog document.
func (f *File) Read(_ context.Context) (catalog.Document, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog.Document{}, fmt.Errorf("%s: %w", f.path, domain.ErrCatalogNotFound)
		}
		return catalog.Document{}, fmt.Errorf("read catalog %s: %w", f.path, err)
	}

	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return catalog.Document{}, fmt.Errorf("decode catalog %s: %v: %w", f.path, err, domain.ErrInvalidCatalog)
	}
	return doc, nil
}

// Replace writes a whole new document. Readers never observe a partially written file:
// the document goes to a temp file in the same directory which is then renamed over the target.
func (f *File) Replace(_ context.Context, doc catalog.Document) error {
	if doc.Items == nil {
		doc.Items = []catalog.Item{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("sync temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp catalog: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace catalog %s: %w", f.path, err)
	}
	return nil
}
