// Package app provides the top-level application lifecycle management for
// framecast. It wires together all dependencies (upstream clients, the
// resolver, caches, optional stores, services, and the API server) and runs
// them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/framecast/internal/config"
	"github.com/alanyoungcy/framecast/internal/server"
	"github.com/alanyoungcy/framecast/internal/server/handler"
	"github.com/alanyoungcy/framecast/internal/server/ws"
	"github.com/alanyoungcy/framecast/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
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

// Run is the main entry point. It wires all dependencies, starts the refresh
// loop, the WebSocket hub, and the API server, and blocks until the context
// is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Any("featured", a.cfg.Markets.Featured),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	width := time.Duration(a.cfg.Markets.WindowSeconds) * time.Second

	// An interface holding a typed nil is not nil, so optional deps are
	// assigned conditionally.
	var archiver service.SnapshotArchiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}
	var deployer service.SafeDeployer
	if deps.Wallet != nil {
		deployer = deps.Wallet
	}

	marketSvc := service.NewMarketService(
		deps.Resolver,
		deps.Clob,
		deps.BatchCache,
		deps.SignalBus,
		archiver,
		a.cfg.Markets.Featured,
		width,
		a.logger,
	)
	sessionSvc := service.NewSessionService(deps.Sessions, deployer, 0, a.logger)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Markets:  handler.NewMarketHandler(marketSvc, a.logger),
		Sessions: handler.NewSessionHandler(sessionSvc, a.logger),
	}

	// Order placement needs a signing key; without one the order routes are
	// simply not registered.
	if deps.Clob.CanSign() {
		orderSvc := service.NewOrderService(
			deps.Clob.Signer(),
			deps.Clob,
			deps.OrderStore,
			deps.SignalBus,
			a.cfg.Polymarket.SignatureType,
			a.logger,
		)
		handlers.Orders = handler.NewOrderHandler(orderSvc, sessionSvc, a.logger)
	} else {
		a.logger.Info("no signing key configured, order endpoints disabled")
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Width:     width,
		StartedAt: time.Now(),
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return marketSvc.RunRefreshLoop(gctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
