// Package server hosts the dashboard HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/calebwray/hedgebot/internal/server/handler"
	"github.com/calebwray/hedgebot/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Status    *handler.StatusHandler
	Portfolio *handler.PortfolioHandler
	Markets   *handler.MarketsHandler
	Journal   *handler.JournalHandler
	Selection *handler.SelectionHandler
}

// Server is the headless HTTP API for the hedge bot.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain (logging, CORS) applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Status.Health)
	mux.HandleFunc("GET /api/status", handlers.Status.Status)

	mux.HandleFunc("GET /api/portfolio", handlers.Portfolio.Portfolio)

	mux.HandleFunc("GET /api/markets", handlers.Markets.List)
	mux.HandleFunc("GET /api/markets/{id}/depth", handlers.Markets.Depth)

	mux.HandleFunc("GET /api/journal", handlers.Journal.List)
	mux.HandleFunc("GET /api/journal/summary", handlers.Journal.Summary)

	mux.HandleFunc("GET /api/selection", handlers.Selection.Get)
	mux.HandleFunc("POST /api/selection", handlers.Selection.Put)

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With("component", "server"),
	}
}

// Start blocks serving HTTP until the server errors or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
