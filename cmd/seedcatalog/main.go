// Command seedcatalog embeds the catalog and writes the index snapshot without starting the server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/config"
	"github.com/kailas-cloud/catalogchat/internal/db"
	dbRedis "github.com/kailas-cloud/catalogchat/internal/db/redis"
	logpkg "github.com/kailas-cloud/catalogchat/internal/logger"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
	catalogrepo "github.com/kailas-cloud/catalogchat/internal/repository/catalog"
	"github.com/kailas-cloud/catalogchat/internal/repository/indexstore"
	openaiTransport "github.com/kailas-cloud/catalogchat/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/catalogchat/internal/usecase/embedding"
	indexeruc "github.com/kailas-cloud/catalogchat/internal/usecase/indexer"
)

func main() {
	catalogPath := flag.String("catalog", "", "catalog file (defaults to catalog.path from config)")
	indexPath := flag.String("out", "", "snapshot file (defaults to catalog.index_path from config)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if *indexPath != "" {
		cfg.Catalog.IndexPath = *indexPath
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var snapshots indexeruc.SnapshotStore = indexstore.NewFile(cfg.Catalog.IndexPath)
	if cfg.Catalog.IndexStorage == config.IndexStorageRedis {
		store := connect(ctx, cfg, logger)
		defer store.Close()
		snapshots = indexstore.NewKV(store, cfg.Storage.KeyPrefix)
	}

	embedder := embeddinguc.NewInstrumentedEmbedder(
		openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		}),
		cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)

	indexer := indexeruc.New(catalogrepo.NewFile(cfg.Catalog.Path), snapshots, embedder, logger)

	indexer.ClearCache()
	index, err := indexer.BuildIndex(ctx, indexeruc.BuildOptions{ForceRebuild: true})
	if err != nil {
		logger.Fatal("Catalog index build failed", zap.Error(err))
	}
	if err := indexer.SaveIndex(ctx, index); err != nil {
		logger.Fatal("Saving catalog index failed", zap.Error(err))
	}

	logger.Info("Catalog seeded",
		zap.Int("items", index.Len()),
		zap.Int("dimensions", index.Dimensions()),
		zap.String("location", indexer.Location()),
	)
}

func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) db.Store {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	return store
}
