package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/catalogchat/internal/db"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

type mockKV struct {
	data   map[string][]byte
	getErr error
	delErr error
	dels   int
}

func newMockKV() *mockKV { return &mockKV{data: map[string][]byte{}} }

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockKV) Del(_ context.Context, key string) error {
	m.dels++
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

var testProfile = agent.Profile{Name: "Vendedora", Description: "Tienda de calzado", Prompt: "Responde en español."}

func TestFile_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "agents", "primary.json"))

	if _, err := f.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	if err := f.Save(ctx, testProfile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != testProfile {
		t.Errorf("Load() = %+v, expected %+v", got, testProfile)
	}

	if err := f.Delete(ctx); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := f.Delete(ctx); err != nil {
		t.Errorf("expected deleting a missing profile to succeed, got %v", err)
	}
}

func TestFile_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "primary.json"))

	for range 3 {
		if err := f.Save(context.Background(), testProfile); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the profile file, got %d entries", len(entries))
	}
}

func TestFile_LoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `prompt: hola`},
		{"null", `null`},
		{"missing prompt", `{"name":"Vendedora"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "primary.json")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := NewFile(path).Load(context.Background())
			if err == nil || errors.Is(err, ErrNotFound) {
				t.Fatalf("expected a decode error, got %v", err)
			}
		})
	}
}

func TestKV_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	m := newMockKV()
	kv := NewKV(m, "test:")

	if _, err := kv.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	if err := kv.Save(ctx, testProfile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, ok := m.data["test:agent:profile"]; !ok {
		t.Fatal("expected profile under test:agent:profile")
	}

	got, err := kv.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != testProfile {
		t.Errorf("Load() = %+v, expected %+v", got, testProfile)
	}

	if err := kv.Delete(ctx); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if m.dels != 1 {
		t.Errorf("expected one DEL, got %d", m.dels)
	}
	if _, err := kv.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if kv.Location() != "redis://test:agent:profile" {
		t.Errorf("unexpected location %q", kv.Location())
	}
}

func TestKV_StoreErrors(t *testing.T) {
	m := newMockKV()
	m.getErr = &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	m.delErr = &db.Error{Op: db.OpDel, Err: errors.New("connection refused")}
	kv := NewKV(m, "test:")

	if _, err := kv.Load(context.Background()); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected store error on load, got %v", err)
	}
	if err := kv.Delete(context.Background()); err == nil {
		t.Error("expected store error on delete")
	}
}
