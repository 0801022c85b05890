package chi

import (
	"context"

	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	chatuc "github.com/kailas-cloud/catalogchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/catalogchat/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
	retrieveruc "github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

// ChatService runs chat turns.
type ChatService interface {
	Reply(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
	History(ctx context.Context, sessionID string) ([]conversation.Message, error)
}

// Retriever answers catalog searches and owns the result cache.
type Retriever interface {
	Facts(ctx context.Context, query string, opts retrieveruc.Options) ([]catalog.Fact, error)
	Purge()
}

// Indexer manages the process-wide catalog index.
type Indexer interface {
	Reseed(ctx context.Context) (indexeruc.BuildReport, error)
	ClearCache()
}

// CatalogStore reads and replaces the catalog source document.
type CatalogStore interface {
	Read(ctx context.Context) (catalog.Document, error)
	Replace(ctx context.Context, doc catalog.Document) error
}

// HealthChecker aggregates component checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// PromptStore reads and edits the assistant profile.
type PromptStore interface {
	Get(ctx context.Context) (agent.Profile, error)
	Update(ctx context.Context, name, description, prompt string) (agent.Profile, error)
	Reset(ctx context.Context) (agent.Profile, error)
}
