package retriever

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
)

// Indexer provides the current catalog index.
type Indexer interface {
	BuildIndex(ctx context.Context, opts indexer.BuildOptions) (catalog.Index, error)
}

// Embedder vectorizes queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
