package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogchat/internal/db"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
)

// store is the consumer interface for KV profile persistence.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// KV keeps the profile under a single key, shared by every server instance.
type KV struct {
	store store
	key   string
}

// NewKV creates a KV-backed profile store. keyPrefix is the store-wide prefix.
func NewKV(s store, keyPrefix string) *KV {
	return &KV{store: s, key: keyPrefix + "agent:profile"}
}

// Location returns the key holding the profile.
func (k *KV) Location() string {
	return "redis://" + k.key
}

// Load reads the profile. Returns ErrNotFound when the key is absent.
func (k *KV) Load(ctx context.Context) (agent.Profile, error) {
	data, err := k.store.Get(ctx, k.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return agent.Profile{}, ErrNotFound
		}
		return agent.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return decode(data)
}

// Save overwrites the profile key.
func (k *KV) Save(ctx context.Context, p agent.Profile) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	if err := k.store.Set(ctx, k.key, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Delete drops the profile key.
func (k *KV) Delete(ctx context.Context) error {
	if err := k.store.Del(ctx, k.key); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
