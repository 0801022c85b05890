package indexer

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
)

// CatalogSource reads the catalog document.
type CatalogSource interface {
	Read(ctx context.Context) (catalog.Document, error)
}

// SnapshotStore persists index snapshots.
// Load returns an error wrapping domain.ErrNotFound when nothing has been saved.
type SnapshotStore interface {
	Load(ctx context.Context) (catalog.Index, error)
	Save(ctx context.Context, index catalog.Index) error
	Location() string
}

// Embedder vectorizes item texts.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
