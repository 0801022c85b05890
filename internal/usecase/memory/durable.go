package memory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
)

// Durable keeps session logs in an external store.
// Store failures degrade to "no history" or "write dropped": they are logged and
// returned wrapped in domain.ErrMemoryUnavailable, never as a partial result.
type Durable struct {
	store   HistoryStore
	backend Backend
	logger  *zap.Logger
	now     func() time.Time
}

// NewDurable creates a store-backed memory.
func NewDurable(store HistoryStore, backend Backend, logger *zap.Logger) *Durable {
	return &Durable{store: store, backend: backend, logger: logger, now: time.Now}
}

// GetMessages reads the session log from the store.
func (d *Durable) GetMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	if sessionID == "" {
		return []conversation.Message{}, nil
	}

	msgs, err := d.store.List(ctx, sessionID)
	if err != nil {
		d.fail("get", sessionID, err)
		return []conversation.Message{}, fmt.Errorf("get messages: %w: %w", domain.ErrMemoryUnavailable, err)
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	return msgs, nil
}

// AddMessage validates msg and appends it to the store.
func (d *Durable) AddMessage(ctx context.Context, sessionID string, msg conversation.Message) error {
	if sessionID == "" {
		return nil
	}
	normalized, err := conversation.Normalize(msg, d.now())
	if err != nil {
		return err //nolint:wrapcheck // domain validation error
	}

	if err := d.store.Append(ctx, sessionID, normalized); err != nil {
		d.fail("add", sessionID, err)
		return fmt.Errorf("add message: %w: %w", domain.ErrMemoryUnavailable, err)
	}
	return nil
}

func (d *Durable) fail(op, sessionID string, err error) {
	metrics.MemoryErrorsTotal.WithLabelValues(d.backend.String(), op).Inc()
	d.logger.Warn("Conversation memory unavailable",
		zap.String("backend", d.backend.String()),
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
}
