package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
	"github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
)

// Defaults used when Config fields are zero.
const (
	DefaultTopK      = 3
	DefaultCacheSize = 100
	DefaultCacheTTL  = 5 * time.Minute
)

// Config holds retriever settings.
type Config struct {
	TopK      int
	CacheSize int
	CacheTTL  time.Duration
}

// Options controls a single retrieval.
type Options struct {
	TopK     int // <= 0 means the configured default
	UseCache bool
}

// DefaultOptions returns the default retrieval options: default topK, cache enabled.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// Service ranks catalog items against free-text queries.
type Service struct {
	indexer  Indexer
	embedder Embedder
	cache    *resultCache
	topK     int
	logger   *zap.Logger
}

// New creates a retriever.
func New(idx Indexer, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		indexer:  idx,
		embedder: embedder,
		cache:    newResultCache(cfg.CacheSize, cfg.CacheTTL),
		topK:     cfg.TopK,
		logger:   logger,
	}
}

// Retrieve returns up to TopK catalog entries ranked by cosine similarity to query.
func (s *Service) Retrieve(ctx context.Context, query string, opts Options) ([]catalog.ScoredEntry, error) {
	if strings.TrimSpace(query) == "" {
		return []catalog.ScoredEntry{}, nil
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}

	// Taken before the index is read so a purge during this lookup discards the result.
	gen := s.cache.generation()

	index, err := s.indexer.BuildIndex(ctx, indexer.BuildOptions{})
	if err != nil {
		return nil, fmt.Errorf("load catalog index: %w", err)
	}
	if index.IsEmpty() {
		return []catalog.ScoredEntry{}, nil
	}

	key := cacheKey(query, topK)
	if opts.UseCache {
		if cached, ok := s.cache.get(key); ok {
			return cached, nil
		}
	}

	start := time.Now()

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results := rank(index, emb.Embedding, topK)

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("Catalog retrieval",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
		zap.Int("index_entries", index.Len()),
	)

	if opts.UseCache {
		s.cache.put(key, results, gen)
	}
	return results, nil
}

// Facts is Retrieve flattened into structured facts.
func (s *Service) Facts(ctx context.Context, query string, opts Options) ([]catalog.Fact, error) {
	results, err := s.Retrieve(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return catalog.ToFacts(results), nil
}

// Purge drops every cached result, including any lookup still in flight.
func (s *Service) Purge() {
	s.cache.purge()
}
