// Package app provides the top-level application lifecycle. It wires the
// detection engine, cache, bus, notifications and HTTP server together and
// runs them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeganAI/cross-dex-arbitrage/internal/config"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/handler"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/ws"
	"github.com/DeganAI/cross-dex-arbitrage/internal/server/x402"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions that are called in reverse order on
// shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the hub,
// the alert listener and the HTTP server, and blocks until the context is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("version", Version),
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("chains", len(a.cfg.ChainConfigs())),
		slog.Bool("free_mode", a.cfg.Payment.FreeMode),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	if deps.AlertListener != nil {
		g.Go(func() error {
			return deps.AlertListener.Run(ctx)
		})
	}

	pay := x402.Config{
		FreeMode:  a.cfg.Payment.FreeMode,
		PayTo:     a.cfg.Payment.PayTo,
		MaxAmount: a.cfg.Payment.MaxAmount,
		Network:   a.cfg.Payment.Network,
		Asset:     a.cfg.Payment.Asset,
		BaseURL:   a.cfg.Payment.BaseURL,
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Index:  handler.NewIndexHandler(Version),
			Health: handler.NewHealthHandler(deps.Detection, pay.FreeMode, a.logger),
			Chains: handler.NewChainsHandler(deps.Detection, a.logger),
			Arb:    handler.NewArbitrageHandler(deps.Detection, a.logger),
		},
		hub,
		deps.RateLimiter,
		pay,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
