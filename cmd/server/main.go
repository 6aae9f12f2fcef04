// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/samay/internal/accounts"
	"github.com/tomtom215/samay/internal/api"
	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/authz"
	"github.com/tomtom215/samay/internal/cart"
	"github.com/tomtom215/samay/internal/complaints"
	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/favorites"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/orders"
	"github.com/tomtom215/samay/internal/store"
	"github.com/tomtom215/samay/internal/supervisor"
	"github.com/tomtom215/samay/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("backend", cfg.Store.Backend).
		Str("environment", cfg.Server.Environment).
		Bool("declared_user_ids", cfg.Security.AllowDeclaredUserID).
		Msg("Starting Samay")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	// A nil *Bus must not reach the services as a non-nil Publisher.
	var publisher events.Publisher
	var bus *events.Bus
	if cfg.Events.Enabled {
		bus, err = events.NewBus(cfg.Events)
		if err != nil {
			logging.Fatal().Err(err).Str("transport", cfg.Events.Transport).Msg("Failed to start event bus")
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		publisher = bus
		logging.Info().Str("transport", bus.Transport()).Msg("Event bus started")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	favEngine := favorites.NewEngine(st, cfg.Favorites, publisher)
	logging.Info().
		Str("race_policy", favEngine.Policy()).
		Int("max_line_quantity", cfg.Cart.MaxLineQuantity).
		Msg("Domain services configured")

	resolver := auth.NewResolver(jwtManager, cfg.Security.AllowDeclaredUserID, api.AuthErrorWriter)
	handler := api.NewHandler(api.Services{
		Carts:      cart.NewService(st, cfg.Cart, publisher),
		Favorites:  favEngine,
		Accounts:   accounts.NewService(st, jwtManager, cfg.Security.BcryptCost, publisher),
		Orders:     orders.NewService(st, cfg.Orders, publisher),
		Complaints: complaints.NewService(st, publisher),
	}, resolver, st, version)

	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, resolver, enforcer, chiMW, cfg.Server.BasePath)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Store.Backend == config.BackendBadger && cfg.Store.Badger.GCInterval > 0 {
		if collector, ok := st.Unwrap().(services.ValueLogCollector); ok {
			tree.AddDataService(services.NewStoreGCService(collector, cfg.Store.Badger.GCInterval, cfg.Store.Badger.GCDiscardRatio))
			logging.Info().Dur("interval", cfg.Store.Badger.GCInterval).Msg("Value log GC service added")
		}
	}

	if bus != nil && cfg.Events.LogConsumer {
		tree.AddMessagingService(events.NewLogConsumer(bus))
		logging.Info().Msg("Event log consumer added")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Str("base_path", cfg.Server.BasePath).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Samay stopped gracefully")
}
