// Package main provides the reporting API server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lending-indexer/internal/api"
	"github.com/lending-indexer/internal/config"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(logging.LevelInfo, logging.FormatText).WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger.Info("Reporting server starting")

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

	logger.Info("Database connections established")

	entityStore := storage.NewEntityStore(postgres)
	ledgerRepo := storage.NewLedgerRepository(clickhouse)

	serverCfg := api.DefaultServerConfig(cfg.Server.Host, cfg.Server.Port)
	server := api.NewServer(serverCfg, entityStore, ledgerRepo, cfg.Protocol.ID, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server stopped with error")
		}
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	}

	logger.Info("Reporting server stopped")
}
