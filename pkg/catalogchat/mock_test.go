package catalogchat

import (
	"context"
	"strings"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	chatuc "github.com/kailas-cloud/catalogchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/catalogchat/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
	retrieveruc "github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

// --- keyword embedder ---

var keywordDims = []string{"zapato", "bolso", "camisa"}

// keywordEmbedder puts 1 in the dimension of every keyword the text contains.
// The trailing bias dimension keeps vectors non-zero.
type keywordEmbedder struct {
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls++
	text = strings.ToLower(text)
	vec := make([]float32, len(keywordDims)+1)
	for i, kw := range keywordDims {
		if strings.Contains(text, kw) {
			vec[i] = 1
		}
	}
	vec[len(keywordDims)] = 0.1
	return EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- use case mocks ---

type mockIndexUC struct {
	buildFn  func(ctx context.Context, opts indexeruc.BuildOptions) (catalog.Index, error)
	reseedFn func(ctx context.Context) (indexeruc.BuildReport, error)
	clears   int
}

func (m *mockIndexUC) BuildIndex(ctx context.Context, opts indexeruc.BuildOptions) (catalog.Index, error) {
	return m.buildFn(ctx, opts)
}

func (m *mockIndexUC) Reseed(ctx context.Context) (indexeruc.BuildReport, error) {
	return m.reseedFn(ctx)
}

func (m *mockIndexUC) ClearCache() { m.clears++ }

type mockRetrieveUC struct {
	factsFn func(ctx context.Context, query string, opts retrieveruc.Options) ([]catalog.Fact, error)
	purges  int
}

func (m *mockRetrieveUC) Facts(ctx context.Context, query string, opts retrieveruc.Options) ([]catalog.Fact, error) {
	return m.factsFn(ctx, query, opts)
}

func (m *mockRetrieveUC) Purge() { m.purges++ }

type mockChatUC struct {
	replyFn   func(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
	historyFn func(ctx context.Context, sessionID string) ([]conversation.Message, error)
}

func (m *mockChatUC) Reply(ctx context.Context, req chatuc.Request) (chatuc.Response, error) {
	return m.replyFn(ctx, req)
}

func (m *mockChatUC) History(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	return m.historyFn(ctx, sessionID)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
