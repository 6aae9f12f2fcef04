// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
	"github.com/tomtom215/samay/internal/store/storetest"
)

func newBadger(t *testing.T) store.Store {
	t.Helper()

	s, err := store.OpenBadger(config.BadgerConfig{Path: t.TempDir()}, 100)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, newBadger)
}

func TestBadgerStore_InMemory(t *testing.T) {
	t.Parallel()

	s, err := store.OpenBadger(config.BadgerConfig{InMemory: true}, 10)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestBadgerStore_PingAfterClose(t *testing.T) {
	t.Parallel()

	s, err := store.OpenBadger(config.BadgerConfig{InMemory: true}, 10)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() on closed store returned nil")
	}
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	t.Parallel()

	s := newBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.UpsertCart(ctx, "u1", func(*models.Cart) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("UpsertCart(canceled) error = %v, want context.Canceled", err)
	}
}

func TestRunValueLogGC_InMemory(t *testing.T) {
	t.Parallel()

	s, err := store.OpenBadger(config.BadgerConfig{InMemory: true}, 3)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer s.Close()

	n, err := s.RunValueLogGC(0.5)
	if err != nil || n != 0 {
		t.Errorf("RunValueLogGC() = %d, %v; want 0, nil", n, err)
	}
}
