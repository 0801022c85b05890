package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/config"
	"github.com/kailas-cloud/catalogchat/internal/db"
	dbRedis "github.com/kailas-cloud/catalogchat/internal/db/redis"
	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/agent"
	logpkg "github.com/kailas-cloud/catalogchat/internal/logger"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
	catalogrepo "github.com/kailas-cloud/catalogchat/internal/repository/catalog"
	"github.com/kailas-cloud/catalogchat/internal/repository/embcache"
	historyrepo "github.com/kailas-cloud/catalogchat/internal/repository/history"
	"github.com/kailas-cloud/catalogchat/internal/repository/indexstore"
	promptrepo "github.com/kailas-cloud/catalogchat/internal/repository/prompt"
	anthropicChat "github.com/kailas-cloud/catalogchat/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/catalogchat/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/catalogchat/internal/transport/openai"
	chatuc "github.com/kailas-cloud/catalogchat/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/catalogchat/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/catalogchat/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
	memoryuc "github.com/kailas-cloud/catalogchat/internal/usecase/memory"
	promptuc "github.com/kailas-cloud/catalogchat/internal/usecase/prompt"
	retrieveruc "github.com/kailas-cloud/catalogchat/internal/usecase/retriever"
	"github.com/kailas-cloud/catalogchat/internal/version"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalogchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("chat_provider", cfg.Chat.Provider),
		zap.String("memory_backend", cfg.Memory.Backend),
	)

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Key-value store is optional: without it memory is transient and snapshots live on disk.
	var store db.Store
	if cfg.Database.Enabled() {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		store = redisStore
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
	}

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	catalogFile := catalogrepo.NewFile(cfg.Catalog.Path)
	indexer := indexeruc.New(catalogFile, buildSnapshotStore(cfg, store), embedder, logger)
	retriever := retrieveruc.New(indexer, embedder, retrieveruc.Config{
		TopK:      cfg.Retrieval.TopK,
		CacheSize: cfg.Retrieval.CacheSize,
		CacheTTL:  cfg.Retrieval.CacheTTL(),
	}, logger)

	mem, err := buildMemory(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to resolve conversation memory", zap.Error(err))
	}
	logger.Info("Conversation memory ready", zap.String("backend", mem.Backend.String()))

	defaultPrompt := strings.TrimSpace(cfg.Chat.SystemPrompt)
	if defaultPrompt == "" {
		defaultPrompt = chatuc.DefaultSystemPrompt
	}
	prompts := promptuc.New(buildPromptStore(cfg, store), agent.Profile{Prompt: defaultPrompt}, logger)
	logger.Info("Agent profile storage ready", zap.String("location", prompts.Location()))

	chatSvc := chatuc.New(retriever, buildCompleter(cfg, logger), mem, chatuc.Config{
		SystemPrompt: defaultPrompt,
		Prompts:      prompts,
		MaxInputLen:  cfg.Chat.MaxInputLen,
		MaxHistory:   cfg.Memory.MaxHistory,
	}, logger)

	// Pass nil interface (not typed nil pointer!) when the store is not configured.
	// Go gotcha: (*Store)(nil) wrapped in DBPinger != nil.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, newEmbeddingHealthChecker(embedder), indexer)

	// Warm the index so the first chat turn does not pay for it.
	go func() {
		if _, err := indexer.BuildIndex(ctx, indexeruc.BuildOptions{Persist: indexer.Location() != ""}); err != nil {
			logger.Warn("Initial catalog index build failed", zap.Error(err))
		}
	}()

	if cfg.Catalog.Watch {
		watcher, err := catalogrepo.NewWatcher(
			cfg.Catalog.Path, time.Duration(cfg.Catalog.WatchDebounceMS)*time.Millisecond, logger,
		)
		if err != nil {
			logger.Fatal("Failed to watch catalog", zap.Error(err))
		}
		defer func() { _ = watcher.Close() }()

		go watcher.Run(ctx, func(ctx context.Context) {
			if _, err := indexer.Reseed(ctx); err != nil {
				logger.Error("Catalog reseed failed", zap.Error(err))
				return
			}
			retriever.Purge()
		})
		logger.Info("Watching catalog", zap.String("path", cfg.Catalog.Path))
	}

	server := chiTransport.NewServer(chiTransport.Deps{
		Chat:         chatSvc,
		Retriever:    retriever,
		Indexer:      indexer,
		Catalog:      catalogFile,
		Health:       healthSvc,
		Prompts:      prompts,
		AdminAPIKeys: cfg.Auth.AdminAPIKeys,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil && cfg.Embedding.Cache {
		embedder = embcache.New(base, store, embcache.Config{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       time.Duration(cfg.Embedding.CacheTTLDays) * 24 * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)
}

// buildSnapshotStore returns where built indexes are persisted.
func buildSnapshotStore(cfg config.Config, store db.Store) indexeruc.SnapshotStore {
	if cfg.Catalog.IndexStorage == config.IndexStorageRedis && store != nil {
		return indexstore.NewKV(store, cfg.Storage.KeyPrefix)
	}
	return indexstore.NewFile(cfg.Catalog.IndexPath)
}

// buildPromptStore returns where prompts edited from the admin API are kept.
func buildPromptStore(cfg config.Config, store db.Store) promptuc.Store {
	if cfg.Chat.PromptStorage == config.PromptStorageRedis && store != nil {
		return promptrepo.NewKV(store, cfg.Storage.KeyPrefix)
	}
	return promptrepo.NewFile(cfg.Chat.PromptPath)
}

func buildMemory(cfg config.Config, store db.Store, logger *zap.Logger) (memoryuc.Resolved, error) {
	backend, err := memoryuc.ParseBackend(cfg.Memory.Backend)
	if err != nil {
		return memoryuc.Resolved{}, err
	}

	deps := memoryuc.Deps{Logger: logger}
	if store != nil {
		deps.History = historyrepo.NewRedis(store, cfg.Storage.KeyPrefix, time.Duration(cfg.Memory.TTLHours)*time.Hour)
	}
	return memoryuc.Resolve(backend, deps)
}

func buildCompleter(cfg config.Config, logger *zap.Logger) chatuc.Completer {
	if cfg.Chat.Provider == config.ChatProviderAnthropic {
		return anthropicChat.NewChat(&anthropicChat.Config{
			APIKey:      cfg.Chat.APIKey,
			BaseURL:     cfg.Chat.BaseURL,
			Model:       cfg.Chat.Model,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			MaxRetries:  -1,
			Logger:      logger,
		})
	}
	return openaiTransport.NewChat(&openaiTransport.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
		Provider:    cfg.Chat.Provider,
		Logger:      logger,
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
