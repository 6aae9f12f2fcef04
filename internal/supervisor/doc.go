// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package supervisor runs the long-lived services of the storefront backend
under a suture v4 supervision tree.

	samay
	├── data-layer
	│   └── StoreGCService (badger backend with gc_interval > 0)
	├── messaging-layer
	│   └── events.Consumer (events.log_consumer)
	└── api-layer
	    └── HTTPServerService

Crashed services restart with suture's backoff. Each layer counts its own
failures. Canceling the context passed to Serve shuts the tree down in
order and waits up to ShutdownTimeout for every service.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}
*/
package supervisor
