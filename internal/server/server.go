// Package server assembles the HTTP API: detection endpoints, the agent
// payment surface, Prometheus metrics and the WebSocket stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/handler"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/middleware"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/ws"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/x402"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per window per client IP; 0 disables
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Index  *handler.IndexHandler
	Health *handler.HealthHandler
	Chains *handler.ChainsHandler
	Arb    *handler.ArbitrageHandler
}

// Server is the HTTP + WebSocket API server for the arbitrage service.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux.
// Detection endpoints get auth and rate limiting; the discovery documents
// stay open so x402 crawlers and agent frameworks can always read them.
// The Go 1.22 mux serves HEAD for every GET pattern, which the well-known
// endpoints rely on.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, pay x402.Config, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	limited := func(h http.Handler) http.Handler {
		if limiter == nil || cfg.RateLimit <= 0 {
			return h
		}
		return middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}

	mux.HandleFunc("GET /{$}", handlers.Index.Index)
	mux.HandleFunc("GET /health", handlers.Health.Health)
	mux.HandleFunc("GET /chains", handlers.Chains.List)

	detect := http.HandlerFunc(handlers.Arb.Detect)
	mux.Handle("POST /arbitrage", limited(middleware.Auth(cfg.APIKey)(detect)))

	// Agent payment surface. The GET challenges always answer 402; only
	// the POST entrypoint runs a detection and only when paid.
	mux.Handle("GET /.well-known/x402", x402.ChallengeHandler(pay, x402.WellKnownDescription))
	mux.Handle("GET /.well-known/agent.json", x402.AgentCardHandler(pay))
	mux.Handle("GET "+x402.EntrypointPath, x402.ChallengeHandler(pay, x402.EntrypointDescription))
	mux.Handle("POST "+x402.EntrypointPath, limited(x402.Gate(pay, logger)(detect)))

	mux.Handle("GET /metrics", promhttp.Handler())

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
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
