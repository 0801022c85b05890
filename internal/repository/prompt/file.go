package prompt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

// File keeps the profile in a JSON document on disk.
type File struct {
	path string
}

// NewFile creates a file-backed profile store.
func NewFile(path string) *File {
	return &File{path: path}
}

// Location returns the profile file path.
func (f *File) Location() string {
	return f.path
}

// Load reads the profile. Returns ErrNotFound when the file does not exist.
func (f *File) Load(_ context.Context) (agent.Profile, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return agent.Profile{}, ErrNotFound
		}
		return agent.Profile{}, fmt.Errorf("read profile %s: %w", f.path, err)
	}
	return decode(data)
}

// Save replaces the file through a temp file and rename, so readers never see a partial profile.
func (f *File) Save(_ context.Context, p agent.Profile) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.json")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace profile %s: %w", f.path, err)
	}
	return nil
}

// Delete removes the profile file. A missing file is not an error.
func (f *File) Delete(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete profile %s: %w", f.path, err)
	}
	return nil
}
