package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"fx-arbitrage-service/internal/arbitrage"
	"fx-arbitrage-service/internal/config"
	"fx-arbitrage-service/internal/quotes"
	"fx-arbitrage-service/internal/storage"
)

// Server exposes the arbitrage detector over HTTP.
type Server struct {
	server   *http.Server
	logger   *zap.Logger
	cfg      *config.Config
	scanner  *arbitrage.Scanner
	executor *arbitrage.Executor
	store    storage.SignalStore
	provider quotes.Provider
	clock    quotes.Clock
}

// New creates the HTTP server and wires its routes.
func New(logger *zap.Logger, cfg *config.Config, scanner *arbitrage.Scanner, executor *arbitrage.Executor, store storage.SignalStore, provider quotes.Provider, clock quotes.Clock) *Server {
	s := &Server{
		logger:   logger.Named("api-server"),
		cfg:      cfg,
		scanner:  scanner,
		executor: executor,
		store:    store,
		provider: provider,
		clock:    clock,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/arbitrage", s.handleAction)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Handler returns the server's root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
