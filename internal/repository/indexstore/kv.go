package indexstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogchat/internal/db"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// store is the consumer interface for KV snapshot persistence.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KV stores the snapshot under a single key of the key-value store.
type KV struct {
	store store
	key   string
}

// NewKV creates a KV-backed snapshot store. keyPrefix is the store-wide prefix.
func NewKV(s store, keyPrefix string) *KV {
	return &KV{store: s, key: keyPrefix + "catalog:index"}
}

// Location returns the key holding the snapshot.
func (k *KV) Location() string {
	return "redis://" + k.key
}

// Load reads the snapshot. Returns ErrNotFound when the key is absent.
func (k *KV) Load(ctx context.Context) (catalog.Index, error) {
	data, err := k.store.Get(ctx, k.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return catalog.Index{}, ErrNotFound
		}
		return catalog.Index{}, fmt.Errorf("load index: %w", err)
	}
	return decode(data)
}

// Save overwrites the snapshot key.
func (k *KV) Save(ctx context.Context, index catalog.Index) error {
	data, err := encode(index)
	if err != nil {
		return err
	}
	if err := k.store.Set(ctx, k.key, data); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
