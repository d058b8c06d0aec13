// Package api provides the read-only reporting HTTP server. It serves the
// aggregated analytics entities and ledger history; all writes happen in the
// indexer process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/metrics"
	"github.com/lending-indexer/internal/models"
)

// LedgerReader is the ledger query surface the server depends on
type LedgerReader interface {
	GetLedgerEntriesByMarket(ctx context.Context, marketID string, limit int) ([]*models.LedgerEntry, error)
	GetLedgerEntriesByAccount(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// Server represents the reporting HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	store      metrics.Store
	ledger     LedgerReader
	protocolID string
	logger     *logging.Logger
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a server configuration with standard timeouts
func DefaultServerConfig(host, port string) *ServerConfig {
	return &ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// NewServer creates a new reporting server instance.
func NewServer(config *ServerConfig, store metrics.Store, ledger LedgerReader, protocolID string, logger *logging.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		store:      store,
		ledger:     ledger,
		protocolID: protocolID,
		logger:     logger,
		config:     config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/protocol", s.handleGetProtocol).Methods("GET")
	api.HandleFunc("/markets", s.handleListMarkets).Methods("GET")
	api.HandleFunc("/markets/{id}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{id}/ledger", s.handleGetMarketLedger).Methods("GET")
	api.HandleFunc("/accounts/{address}/ledger", s.handleGetAccountLedger).Methods("GET")
	api.HandleFunc("/snapshots/financials/{day}", s.handleGetFinancialsSnapshot).Methods("GET")
	api.HandleFunc("/snapshots/usage/{granularity}/{id}", s.handleGetUsageSnapshot).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "lending-indexer",
	})
}

// Router returns the underlying router. Exposed for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting reporting server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down reporting server")
	return s.httpServer.Shutdown(ctx)
}
