// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package testinfra starts throwaway backing services for integration
// tests with testcontainers-go. Everything here is behind the integration
// build tag:
//
//	go test -tags integration ./internal/store/...
//
// # Databases
//
// NewPostgresContainer and NewMongoContainer return a running server plus
// the connection string to hand to the store constructors:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    s, err := store.OpenPostgres(ctx, config.PostgresConfig{DSN: pg.DSN})
//	    // ...
//	}
//
// # NATS
//
// NewNATSContainer starts a JetStream-enabled NATS server for the event
// publisher tests.
//
// Tests skip instead of failing when Docker is unavailable.
package testinfra
