// Package server owns the HTTP surface: route registration, the middleware
// chain, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tejeshkinariwala/tightentrade/internal/metrics"
	"github.com/tejeshkinariwala/tightentrade/internal/server/handler"
	"github.com/tejeshkinariwala/tightentrade/internal/server/middleware"
	"github.com/tejeshkinariwala/tightentrade/internal/server/stream"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Bets   *handler.BetHandler
	Push   *handler.PushHandler
}

// Server is the HTTP API server for the betting ledger.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (CORS, logging, metrics) applied.
func NewServer(cfg Config, handlers Handlers, hub *stream.Hub, m *metrics.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Bet lifecycle endpoints.
	mux.HandleFunc("GET /api/bets", handlers.Bets.ListBets)
	mux.HandleFunc("POST /api/bets", handlers.Bets.CreateBet)
	mux.HandleFunc("PATCH /api/bets/{id}", handlers.Bets.UpdateBet)
	mux.HandleFunc("DELETE /api/bets/{id}", handlers.Bets.DeleteBet)
	mux.HandleFunc("POST /api/bets/{id}/trade", handlers.Bets.Trade)
	mux.HandleFunc("POST /api/bets/{id}/settle", handlers.Bets.Settle)

	// Web-push endpoints.
	mux.HandleFunc("POST /api/push/subscribe", handlers.Push.Subscribe)
	mux.HandleFunc("POST /api/push/test", handlers.Push.SendTest)

	// Live update endpoints.
	if hub != nil {
		mux.HandleFunc("GET /api/events", hub.HandleSSE)
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	var h http.Handler = mux
	if m != nil {
		h = middleware.Metrics(m)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/events and /ws hold their connection open.
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
