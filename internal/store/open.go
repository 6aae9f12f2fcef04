// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store

import (
	"context"
	"fmt"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
)

// Open connects the configured backend and wraps it in a ResilientStore.
// Failing to connect is fatal for the caller; there is no lazy reconnect.
func Open(ctx context.Context, cfg config.StoreConfig) (*ResilientStore, error) {
	var (
		backend Store
		err     error
	)

	switch cfg.Backend {
	case config.BackendBadger:
		backend, err = OpenBadger(cfg.Badger, cfg.MaxConflictRetries)
	case config.BackendPostgres:
		backend, err = OpenPostgres(ctx, cfg.Postgres)
	case config.BackendMongo:
		backend, err = OpenMongo(ctx, cfg.Mongo, cfg.MaxConflictRetries)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Backend, err)
	}

	logging.Info().
		Str("backend", cfg.Backend).
		Bool("breaker", cfg.Breaker.Enabled).
		Msg("Store opened")

	return NewResilientStore(backend, cfg.Backend, cfg.Breaker), nil
}
