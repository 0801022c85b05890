package catalogchat

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer produces the assistant reply for a prompt.
// The first messages carry the system prompt and catalog context.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", err, domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// completerAdapter wraps public Completer to satisfy the chat orchestrator.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	reply, err := a.inner.Complete(ctx, out)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}

// noopCompleter returns an error on Complete call (used when no completer configured).
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _ []conversation.Message) (string, error) {
	return "", fmt.Errorf("catalogchat: completer not configured (use WithCompleter): %w", domain.ErrInvalidRequest)
}
