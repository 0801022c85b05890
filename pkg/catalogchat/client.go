package catalogchat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/db"
	dbRedis "github.com/kailas-cloud/catalogchat/internal/db/redis"
	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/domain/conversation"
	catalogrepo "github.com/kailas-cloud/catalogchat/internal/repository/catalog"
	historyrepo "github.com/kailas-cloud/catalogchat/internal/repository/history"
	"github.com/kailas-cloud/catalogchat/internal/repository/indexstore"
	promptrepo "github.com/kailas-cloud/catalogchat/internal/repository/prompt"
	chatuc "github.com/kailas-cloud/catalogchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/catalogchat/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
	memoryuc "github.com/kailas-cloud/catalogchat/internal/usecase/memory"
	promptuc "github.com/kailas-cloud/catalogchat/internal/usecase/prompt"
	retrieveruc "github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped in tests.
type indexUseCase interface {
	BuildIndex(ctx context.Context, opts indexeruc.BuildOptions) (catalog.Index, error)
	Reseed(ctx context.Context) (indexeruc.BuildReport, error)
	ClearCache()
}

type retrieveUseCase interface {
	Facts(ctx context.Context, query string, opts retrieveruc.Options) ([]catalog.Fact, error)
	Purge()
}

type chatUseCase interface {
	Reply(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
	History(ctx context.Context, sessionID string) ([]conversation.Message, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type promptUseCase interface {
	Get(ctx context.Context) (agent.Profile, error)
	Update(ctx context.Context, name, description, prompt string) (agent.Profile, error)
	Reset(ctx context.Context) (agent.Profile, error)
}

// Client is the catalogchat SDK entry point.
type Client struct {
	store     db.Store
	indexer   indexUseCase
	retriever retrieveUseCase
	chat      chatUseCase
	health    healthUseCase
	prompts   promptUseCase
	persist   bool
	obs       *observer
}

// New creates a Client. When a store is configured the provided context is
// used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{prefix: domain.KeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.catalogPath == "" {
		return nil, errors.New("catalogchat: catalog file required (use WithCatalogFile)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("catalogchat: embedder required (use WithEmbedder)")
	}
	if cfg.durableMemory && len(cfg.addrs) == 0 {
		return nil, errors.New("catalogchat: durable memory requires a store (use WithRedis or WithValkey)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.addrs) > 0 {
		s, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("catalogchat: database not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("catalogchat: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("catalogchat: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := zap.NewNop()
	embedder := &embedderAdapter{inner: cfg.embedder}

	// Pass nil interface (not typed nil pointer!) when nothing persists snapshots.
	var snapshots indexeruc.SnapshotStore
	switch {
	case cfg.indexPath != "":
		snapshots = indexstore.NewFile(cfg.indexPath)
	case store != nil:
		snapshots = indexstore.NewKV(store, cfg.prefix)
	}

	indexer := indexeruc.New(catalogrepo.NewFile(cfg.catalogPath), snapshots, embedder, logger)
	retriever := retrieveruc.New(indexer, embedder, retrieveruc.Config{
		TopK:      cfg.topK,
		CacheSize: cfg.cacheSize,
		CacheTTL:  cfg.cacheTTL,
	}, logger)

	backend := memoryuc.BackendInMemory
	deps := memoryuc.Deps{Logger: logger}
	if cfg.durableMemory {
		backend = memoryuc.BackendRedis
		deps.History = historyrepo.NewRedis(store, cfg.prefix, cfg.memoryTTL)
	}
	mem, err := memoryuc.Resolve(backend, deps)
	if err != nil {
		return nil, fmt.Errorf("catalogchat: %w", err)
	}

	// Same nil-interface rule as snapshots: no store means prompts stay in memory.
	var promptStore promptuc.Store
	switch {
	case cfg.promptPath != "":
		promptStore = promptrepo.NewFile(cfg.promptPath)
	case store != nil:
		promptStore = promptrepo.NewKV(store, cfg.prefix)
	}
	defaultPrompt := cfg.systemPrompt
	if defaultPrompt == "" {
		defaultPrompt = chatuc.DefaultSystemPrompt
	}
	prompts := promptuc.New(promptStore, agent.Profile{Prompt: defaultPrompt}, logger)

	var completer chatuc.Completer = noopCompleter{}
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	}
	chat := chatuc.New(retriever, completer, mem, chatuc.Config{
		SystemPrompt: defaultPrompt,
		Prompts:      prompts,
		MaxHistory:   cfg.maxHistory,
	}, logger)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}

	return &Client{
		store:     store,
		indexer:   indexer,
		retriever: retriever,
		chat:      chat,
		health:    healthuc.New(pinger, nil, indexer),
		prompts:   prompts,
		persist:   snapshots != nil,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity. Without a store it always succeeds.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// BuildIndex makes sure an index is published: the in-memory one, the persisted
// snapshot or a fresh build. force skips the first two.
func (c *Client) BuildIndex(ctx context.Context, force bool) (stats IndexStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("build_index", start, err) }()

	idx, err := c.indexer.BuildIndex(ctx, indexeruc.BuildOptions{ForceRebuild: force, Persist: c.persist})
	if err != nil {
		return IndexStats{}, fmt.Errorf("build index: %w", err)
	}
	if force {
		c.retriever.Purge()
	}
	return IndexStats{Items: idx.Len(), Dimensions: idx.Dimensions()}, nil
}

// Reseed rebuilds the index from the catalog file and persists it.
func (c *Client) Reseed(ctx context.Context) (report BuildReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reseed", start, err) }()

	r, err := c.indexer.Reseed(ctx)
	if err != nil {
		return BuildReport{}, fmt.Errorf("reseed: %w", err)
	}
	c.retriever.Purge()
	return reportFromDomain(r), nil
}

// ClearCache drops the in-memory index and every cached search result.
func (c *Client) ClearCache() {
	c.indexer.ClearCache()
	c.retriever.Purge()
}

// Search returns up to topK catalog items ranked by similarity to query.
// topK <= 0 uses the client default.
func (c *Client) Search(ctx context.Context, query string, topK int) (facts []Fact, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	opts := retrieveruc.DefaultOptions()
	opts.TopK = topK
	found, err := c.retriever.Facts(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return factsFromDomain(found), nil
}

// Chat runs one conversation turn.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (reply ChatReply, err error) {
	start := time.Now()
	defer func() { c.obs.observe("chat", start, err) }()

	resp, err := c.chat.Reply(ctx, chatuc.Request{
		SessionID:  req.SessionID,
		Message:    req.Message,
		TopK:       req.TopK,
		UseCatalog: !req.DisableCatalog,
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("chat: %w", err)
	}

	return ChatReply{
		Reply:           resp.Reply,
		SessionID:       resp.SessionID,
		MemoryProvider:  resp.MemoryProvider,
		HistoryDegraded: resp.HistoryDegraded,
		CatalogDegraded: resp.CatalogDegraded,
		Facts:           factsFromDomain(catalog.ToFacts(resp.Results)),
	}, nil
}

// History returns the stored messages of a session, oldest first.
func (c *Client) History(ctx context.Context, sessionID string) (msgs []Message, err error) {
	start := time.Now()
	defer func() { c.obs.observe("history", start, err) }()

	found, err := c.chat.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return messagesFromDomain(found), nil
}

// Prompt returns the profile whose prompt the next Chat turn will use.
func (c *Client) Prompt(ctx context.Context) (profile AgentProfile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_prompt", start, err) }()

	p, err := c.prompts.Get(ctx)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("get prompt: %w", err)
	}
	return profileFromDomain(p), nil
}

// UpdatePrompt saves a new system prompt. prompt is required; a blank name gets the default.
func (c *Client) UpdatePrompt(ctx context.Context, name, description, prompt string) (profile AgentProfile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_prompt", start, err) }()

	p, err := c.prompts.Update(ctx, name, description, prompt)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("update prompt: %w", err)
	}
	return profileFromDomain(p), nil
}

// ResetPrompt drops the saved prompt and returns the default now in effect.
func (c *Client) ResetPrompt(ctx context.Context) (profile AgentProfile, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset_prompt", start, err) }()

	p, err := c.prompts.Reset(ctx)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("reset prompt: %w", err)
	}
	return profileFromDomain(p), nil
}
