package catalogchat

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string
	prefix   string

	catalogPath string
	indexPath   string
	promptPath  string

	embedder  Embedder
	completer Completer

	topK      int
	cacheSize int
	cacheTTL  time.Duration

	durableMemory bool
	memoryTTL     time.Duration
	maxHistory    int
	systemPrompt  string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores index snapshots (and durable memory) in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores index snapshots (and durable memory) in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the prefix of every key written to the store.
// Default: "catalogchat:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithCatalogFile sets the catalog JSON document. Required.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithIndexFile persists index snapshots to a file.
// Takes precedence over the store when both are configured.
func WithIndexFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPath = path
	})
}

// WithPromptFile keeps prompts saved with UpdatePrompt in a JSON file.
// Without it they go to the store when one is configured, otherwise they live in memory.
func WithPromptFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.promptPath = path
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the LLM used by Chat. Search works without it.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithTopK sets the default number of search results. Default: 3.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithResultCache sizes the retrieval result cache. Defaults: 100 entries, 5 minutes.
func WithResultCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	})
}

// WithDurableMemory keeps conversation history in the store instead of process memory.
// ttl refreshes on every append; 0 keeps histories forever.
func WithDurableMemory(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.durableMemory = true
		c.memoryTTL = ttl
	})
}

// WithMaxHistory caps how many past messages are sent to the LLM. Default: all.
func WithMaxHistory(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxHistory = n
	})
}

// WithSystemPrompt replaces the built-in sales assistant prompt.
// It stays the default served until UpdatePrompt saves another one.
func WithSystemPrompt(prompt string) Option {
	return optionFunc(func(c *clientConfig) {
		c.systemPrompt = prompt
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
