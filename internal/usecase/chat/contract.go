package chat

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	"github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

// Retriever ranks catalog items for the user message.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts retriever.Options) ([]catalog.ScoredEntry, error)
}

// Completer is the LLM boundary.
type Completer interface {
	Complete(ctx context.Context, messages []conversation.Message) (string, error)
}

// PromptSource supplies the system prompt for each turn.
type PromptSource interface {
	SystemPrompt(ctx context.Context) string
}
