package memory

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

// Memory is an append-only per-session chat log.
type Memory interface {
	// GetMessages returns a copy of the session log in chronological order.
	// An empty or unknown session yields an empty slice.
	GetMessages(ctx context.Context, sessionID string) ([]conversation.Message, error)
	// AddMessage validates and appends msg. An empty session id is a no-op.
	AddMessage(ctx context.Context, sessionID string, msg conversation.Message) error
}

// HistoryStore is the durable backend of Durable.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg conversation.Message) error
	List(ctx context.Context, sessionID string) ([]conversation.Message, error)
}
