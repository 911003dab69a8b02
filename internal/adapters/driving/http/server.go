// Package http implements the HTTP driving adapter: a thin
// net/http.ServeMux router in front of the search and ingest services,
// per spec §6's external interface table.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
	"github.com/domainforge/domainforge-core/internal/core/ports/driving"
)

// Pinger is a health-check interface satisfied by the result cache.
// The index engine is checked separately through its HealthCheck.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP driving adapter. It owns no business logic: every
// handler delegates to searchService or ingestService.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	logger     *slog.Logger

	searchService driving.SearchService
	ingestService driving.IngestService
	index         driven.IndexEngine
	cache         Pinger // result cache health check, optional
}

// Config holds server configuration.
type Config struct {
	Host   string
	Port   int
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults, matching spec §6's API_PORT
// default of 3000.
func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 3000}
}

// NewServer creates an HTTP server wired to the search and ingest
// services. cache may be nil when the deployment runs without Redis.
func NewServer(cfg Config, searchService driving.SearchService, ingestService driving.IngestService, index driven.IndexEngine, cache Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:        http.NewServeMux(),
		logger:        logger,
		searchService: searchService,
		ingestService: ingestService,
		index:         index,
		cache:         cache,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) withMiddleware(h http.Handler) http.Handler {
	recovery := NewRecoveryMiddleware(s.logger)
	logging := NewLoggingMiddleware(s.logger)
	return logging.Handler(recovery.Handler(h))
}

// setupRoutes registers the routes from spec §6's external interface
// table using Go 1.22+ method-pattern ServeMux routing.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
	s.router.HandleFunc("GET /exact", s.handleExact)
	s.router.HandleFunc("GET /search", s.handleSearch)
	s.router.HandleFunc("POST /search/bulk", s.handleBulkSearch)
}

// Start runs the server until an interrupt/SIGTERM is received, then
// shuts it down gracefully within a 30s budget.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Stop shuts the server down using the given context's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
