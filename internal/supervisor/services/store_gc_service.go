// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package services

import (
	"context"
	"time"

	"github.com/tomtom215/samay/internal/logging"
)

// ValueLogCollector is satisfied by *store.BadgerStore.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) (int, error)
}

// StoreGCService reclaims Badger value log space on a fixed interval.
// A failed run is logged and retried on the next tick.
type StoreGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
}

// NewStoreGCService creates the service. interval must be positive.
func NewStoreGCService(store ValueLogCollector, interval time.Duration, discardRatio float64) *StoreGCService {
	return &StoreGCService{store: store, interval: interval, discardRatio: discardRatio}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *StoreGCService) collect() {
	start := time.Now()
	n, err := s.store.RunValueLogGC(s.discardRatio)
	if err != nil {
		logging.Warn().Err(err).Msg("Value log GC failed")
		return
	}
	if n > 0 {
		logging.Info().
			Int("files_rewritten", n).
			Dur("duration", time.Since(start)).
			Msg("Value log GC reclaimed space")
	}
}

// String implements fmt.Stringer.
func (s *StoreGCService) String() string {
	return "store-gc"
}
