// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/store"
	"github.com/tomtom215/samay/internal/store/storetest"
	"github.com/tomtom215/samay/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.OpenPostgres(ctx, config.PostgresConfig{
			DSN:             pg.DSN,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		})
		if err != nil {
			t.Fatalf("OpenPostgres() error = %v", err)
		}
		truncatePostgres(t, pg.DSN)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func truncatePostgres(t *testing.T, dsn string) {
	t.Helper()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`TRUNCATE users, carts, favorites, orders`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func TestMongoStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	mongo, err := testinfra.NewMongoContainer(ctx)
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, mongo)

	var n atomic.Int64
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.OpenMongo(ctx, config.MongoConfig{
			URI:            mongo.URI,
			Database:       fmt.Sprintf("samay_test_%d", n.Add(1)),
			ConnectTimeout: 10 * time.Second,
		}, 50)
		if err != nil {
			t.Fatalf("OpenMongo() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
