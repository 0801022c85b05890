package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the catalogchat configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Memory    MemoryConfig    `yaml:"memory"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	AdminAPIKeys []string `yaml:"admin_api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // chat turns wait on the LLM, keep this generous
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverNone   = "none"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a key-value store is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Driver == DriverRedis || d.Driver == DriverValkey
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // label used in metrics and logs
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	Cache        bool   `yaml:"cache"` // cache vectors in the store (requires database)
	CacheTTLDays int    `yaml:"cache_ttl_days"`
}

// Chat providers.
const (
	ChatProviderOpenAI    = "openai"
	ChatProviderAnthropic = "anthropic"
)

// ChatConfig holds LLM settings.
type ChatConfig struct {
	Provider     string  `yaml:"provider"` // openai, anthropic
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float32 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"` // default until an operator saves one
	MaxInputLen  int     `yaml:"max_input_len"`
	// PromptStorage keeps prompts edited from the admin API: file, redis.
	PromptStorage string `yaml:"prompt_storage"`
	PromptPath    string `yaml:"prompt_path"`
}

// Index and prompt storage backends.
const (
	IndexStorageFile  = "file"
	IndexStorageRedis = "redis"

	PromptStorageFile  = "file"
	PromptStorageRedis = "redis"
)

// CatalogConfig holds catalog source and index persistence settings.
type CatalogConfig struct {
	Path            string `yaml:"path"`
	IndexStorage    string `yaml:"index_storage"` // file, redis
	IndexPath       string `yaml:"index_path"`
	Watch           bool   `yaml:"watch"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms"`
}

// RetrievalConfig holds retriever defaults.
type RetrievalConfig struct {
	TopK        int `yaml:"top_k"`
	CacheSize   int `yaml:"cache_size"`
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// CacheTTL returns the retrieval cache TTL.
func (r RetrievalConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSec) * time.Second
}

// Memory backends.
const (
	MemoryInMemory = "in_memory"
	MemoryRedis    = "redis"
)

// MemoryConfig holds conversation memory settings.
type MemoryConfig struct {
	Backend    string `yaml:"backend"` // in_memory, redis
	TTLHours   int    `yaml:"ttl_hours"`
	MaxHistory int    `yaml:"max_history"` // messages sent to the LLM per turn, 0 = all
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes a YAML document, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "catalogchat:"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = ChatProviderOpenAI
	}
	if c.Chat.Model == "" {
		c.Chat.Model = defaultChatModel(c.Chat.Provider)
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 1024
	}
	if c.Chat.MaxInputLen <= 0 {
		c.Chat.MaxInputLen = 4000
	}
	if c.Chat.PromptStorage == "" {
		c.Chat.PromptStorage = PromptStorageFile
	}
	if c.Chat.PromptPath == "" {
		c.Chat.PromptPath = filepath.Join("data", "agent.json")
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join("data", "catalogo.json")
	}
	if c.Catalog.IndexStorage == "" {
		c.Catalog.IndexStorage = IndexStorageFile
	}
	if c.Catalog.IndexPath == "" {
		c.Catalog.IndexPath = filepath.Join("data", "catalog-index.json")
	}
	if c.Catalog.WatchDebounceMS <= 0 {
		c.Catalog.WatchDebounceMS = 500
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.CacheSize <= 0 {
		c.Retrieval.CacheSize = 100
	}
	if c.Retrieval.CacheTTLSec <= 0 {
		c.Retrieval.CacheTTLSec = 300
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = MemoryInMemory
	}
}

func defaultChatModel(provider string) string {
	if provider == ChatProviderAnthropic {
		return "claude-3-5-haiku-latest"
	}
	return "gpt-4o-mini"
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverNone:
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be %q, %q or %q, got %q",
			DriverNone, DriverRedis, DriverValkey, c.Database.Driver)
	}

	switch c.Chat.Provider {
	case ChatProviderOpenAI, ChatProviderAnthropic:
	default:
		return fmt.Errorf("chat.provider must be %q or %q, got %q",
			ChatProviderOpenAI, ChatProviderAnthropic, c.Chat.Provider)
	}

	switch c.Chat.PromptStorage {
	case PromptStorageFile:
	case PromptStorageRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("chat.prompt_storage %q requires a database driver", PromptStorageRedis)
		}
	default:
		return fmt.Errorf("chat.prompt_storage must be %q or %q, got %q",
			PromptStorageFile, PromptStorageRedis, c.Chat.PromptStorage)
	}

	switch c.Catalog.IndexStorage {
	case IndexStorageFile:
	case IndexStorageRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("catalog.index_storage %q requires a database driver", IndexStorageRedis)
		}
	default:
		return fmt.Errorf("catalog.index_storage must be %q or %q, got %q",
			IndexStorageFile, IndexStorageRedis, c.Catalog.IndexStorage)
	}

	switch c.Memory.Backend {
	case MemoryInMemory:
	case MemoryRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("memory.backend %q requires a database driver", MemoryRedis)
		}
	default:
		return fmt.Errorf("memory.backend must be %q or %q, got %q",
			MemoryInMemory, MemoryRedis, c.Memory.Backend)
	}

	if c.Embedding.Cache && !c.Database.Enabled() {
		return fmt.Errorf("embedding.cache requires a database driver")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
