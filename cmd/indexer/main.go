// Package main provides the indexer entry point: it polls chain logs,
// decodes protocol events and folds them into the analytics entities.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lending-indexer/internal/adapter"
	"github.com/lending-indexer/internal/config"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/metrics"
	"github.com/lending-indexer/internal/pricing"
	"github.com/lending-indexer/internal/storage"
	"github.com/lending-indexer/internal/types"
	"github.com/lending-indexer/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(logging.LevelInfo, logging.FormatText).WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger.WithFields(map[string]interface{}{
		"protocol":   cfg.Protocol.Slug,
		"startBlock": cfg.Protocol.StartBlock,
	}).Info("Indexer starting")

	// Database connections
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	entityStore := storage.NewEntityStore(postgres)
	ledgerRepo := storage.NewLedgerRepository(clickhouse)

	engine := metrics.NewEngine(entityStore, ledgerRepo, logger, metrics.EngineConfig{
		Protocol: metrics.ProtocolDefaults{
			ID:      cfg.Protocol.ID,
			Name:    cfg.Protocol.Name,
			Slug:    cfg.Protocol.Slug,
			Network: types.ChainEthereum,
		},
		DebtAsset: cfg.Protocol.DebtAsset,
	})

	// Chain connection
	client, err := adapter.NewChainClient(&adapter.ChainClientConfig{
		Primary:        cfg.Chain.RPCPrimary,
		Secondary:      cfg.Chain.RPCSecondary,
		RequestsPerSec: cfg.Indexer.RequestsPerSec,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to chain RPC")
	}
	defer client.Close()

	prices := pricing.NewPriceCache(redis, 24*time.Hour)
	meta := pricing.NewCachedMetadataProvider(pricing.NewERC20Provider(client.Client()), redis, 7*24*time.Hour)

	enricher := worker.NewEnricher(entityStore, engine.Resolver(), prices, meta, logger)
	dedupe := storage.NewEventDedupe(redis, cfg.Indexer.DedupeTTL)
	ingest := worker.NewIngestWorker(engine, enricher, dedupe, logger)

	decoder := adapter.NewDecoder(
		common.HexToAddress(cfg.Protocol.ID),
		common.HexToAddress(cfg.Protocol.Spotter),
	)
	poller := adapter.NewPoller(client, decoder, redis, &adapter.PollerConfig{
		StartBlock:    cfg.Protocol.StartBlock,
		MaxBlockRange: cfg.Indexer.MaxBlocksPerPoll,
		PollInterval:  cfg.Chain.PollInterval,
	}, logger)

	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), logger))
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	if err := poller.Run(ctx, ingest.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Indexer stopped with error")
	}

	logger.Info("Indexer stopped")
}
