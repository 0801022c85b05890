package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

// Transient keeps session logs in process memory. Logs are lost on restart and never trimmed.
type Transient struct {
	mu       sync.RWMutex
	sessions map[string][]conversation.Message
	now      func() time.Time
}

// NewTransient creates an empty in-process memory.
func NewTransient() *Transient {
	return &Transient{
		sessions: make(map[string][]conversation.Message),
		now:      time.Now,
	}
}

// GetMessages returns a copy of the session log.
func (t *Transient) GetMessages(_ context.Context, sessionID string) ([]conversation.Message, error) {
	if sessionID == "" {
		return []conversation.Message{}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	msgs := t.sessions[sessionID]
	if msgs == nil {
		return []conversation.Message{}, nil
	}
	return slices.Clone(msgs), nil
}

// AddMessage appends a validated message to the session log.
func (t *Transient) AddMessage(_ context.Context, sessionID string, msg conversation.Message) error {
	if sessionID == "" {
		return nil
	}
	normalized, err := conversation.Normalize(msg, t.now())
	if err != nil {
		return err //nolint:wrapcheck // domain validation error
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[sessionID] = append(t.sessions[sessionID], normalized)
	return nil
}
