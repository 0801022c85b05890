// Package history stores conversation transcripts in a Redis list per session.
package history

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

// store is the consumer interface for history persistence (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Redis is a durable history store keyed by session id.
type Redis struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// NewRedis creates a history store. ttl > 0 refreshes the session expiry on every append.
func NewRedis(s store, keyPrefix string, ttl time.Duration) *Redis {
	return &Redis{store: s, keyPrefix: keyPrefix + "history:", ttl: ttl}
}

// Append adds a message to the tail of the session transcript.
func (r *Redis) Append(ctx context.Context, sessionID string, msg conversation.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	key := r.key(sessionID)
	if err := r.store.RPush(ctx, key, data); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
			return fmt.Errorf("refresh history ttl: %w", err)
		}
	}
	return nil
}

// List returns the session transcript ordered by creation time.
// Entries that cannot be decoded are skipped.
func (r *Redis) List(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	raw, err := r.store.LRange(ctx, r.key(sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]conversation.Message, 0, len(raw))
	for _, b := range raw {
		var m conversation.Message
		if json.Unmarshal(b, &m) != nil || m.Role == "" {
			continue
		}
		out = append(out, m)
	}

	slices.SortStableFunc(out, func(a, b conversation.Message) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return out, nil
}

func (r *Redis) key(sessionID string) string {
	return r.keyPrefix + sessionID
}
