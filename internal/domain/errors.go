package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals malformed client input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCatalogNotFound signals that the catalog source document does not exist.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog signals a catalog document that cannot be decoded.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidMessage signals a conversation message without role or content.
	ErrInvalidMessage = errors.New("message must include role and content")
	// ErrMemoryUnavailable signals that the conversation memory backend failed.
	// Callers degrade to empty history or a dropped write.
	ErrMemoryUnavailable = errors.New("conversation memory unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
)
