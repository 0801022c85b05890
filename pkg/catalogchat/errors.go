package catalogchat

import "github.com/kailas-cloud/catalogchat/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrCatalogNotFound        = domain.ErrCatalogNotFound
	ErrInvalidCatalog         = domain.ErrInvalidCatalog
	ErrInvalidMessage         = domain.ErrInvalidMessage
	ErrMemoryUnavailable      = domain.ErrMemoryUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMProviderError       = domain.ErrLLMProviderError
)
