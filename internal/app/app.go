// Package app provides the top-level application lifecycle management for
// the betting ledger. It wires together all dependencies (store, signal bus,
// notifications, services, live-update hub) and runs the HTTP server until
// the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tejeshkinariwala/tightentrade/internal/config"
	"github.com/tejeshkinariwala/tightentrade/internal/metrics"
	"github.com/tejeshkinariwala/tightentrade/internal/server"
	"github.com/tejeshkinariwala/tightentrade/internal/server/handler"
	"github.com/tejeshkinariwala/tightentrade/internal/server/stream"
	"github.com/tejeshkinariwala/tightentrade/internal/service"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
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

// Run is the main entry point. It wires all dependencies, starts the hub and
// HTTP server goroutines, and blocks until the context is cancelled or a
// subsystem fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	hub := stream.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	broadcaster := stream.NewBusBroadcaster(deps.SignalBus, a.logger)
	betSvc := service.NewBetService(deps.Store, broadcaster, deps.Notifier, a.logger)
	pushSvc := service.NewPushService(deps.Store.Subscriptions(), deps.Notifier, a.logger)

	m := metrics.New()

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Health: handler.NewHealthHandler(a.logger),
			Bets:   handler.NewBetHandler(betSvc, a.logger),
			Push:   handler.NewPushHandler(pushSvc, a.logger),
		},
		hub,
		m,
		a.logger,
	)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
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
