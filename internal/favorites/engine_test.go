// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package favorites

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

func newStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.OpenBadger(config.BadgerConfig{InMemory: true}, 100)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newEngine(s store.Favorites, policy string) *Engine {
	return NewEngine(s, config.FavoritesConfig{RacePolicy: policy, MaxRaceRetries: 3}, nil)
}

// stalePrecheck hides existing rows from the first staleReads GetFavorite
// calls, reproducing a pre-check that ran before a concurrent insert.
type stalePrecheck struct {
	store.Favorites
	staleReads atomic.Int32
}

func (s *stalePrecheck) GetFavorite(ctx context.Context, userID string, productID models.ProductID) (*models.Favorite, error) {
	if s.staleReads.Add(-1) >= 0 {
		return nil, store.ErrNotFound
	}
	return s.Favorites.GetFavorite(ctx, userID, productID)
}

// phantomDuplicate reports ErrDuplicate for the first failInserts inserts
// without storing anything, as if a third actor inserted and then removed
// the pair between our insert and our re-read.
type phantomDuplicate struct {
	store.Favorites
	failInserts atomic.Int32
}

func (p *phantomDuplicate) InsertFavorite(ctx context.Context, fav *models.Favorite) error {
	if p.failInserts.Add(-1) >= 0 {
		return store.ErrDuplicate
	}
	return p.Favorites.InsertFavorite(ctx, fav)
}

func countRows(t *testing.T, s store.Favorites, userID string) int {
	t.Helper()

	favs, err := s.ListFavorites(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	return len(favs)
}

func TestToggle_Sequence(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	e := newEngine(s, config.RacePolicyCoalesce)
	ctx := context.Background()

	res, err := e.Toggle(ctx, "u1", "p9")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !res.IsFavorite || res.Favorite == nil {
		t.Errorf("first Toggle() = %+v, want Present with record", res)
	}

	res, err = e.Toggle(ctx, "u1", "p9")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if res.IsFavorite {
		t.Error("second Toggle() reported Present, want Absent")
	}
	if n := countRows(t, s, "u1"); n != 0 {
		t.Errorf("rows after two toggles = %d, want 0", n)
	}
}

func TestToggle_NormalizesProductID(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	e := newEngine(s, config.RacePolicyCoalesce)
	ctx := context.Background()

	if _, err := e.Toggle(ctx, "u1", "9"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	res, err := e.Toggle(ctx, "u1", " 009 ")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if res.IsFavorite {
		t.Error(`Toggle(" 009 ") after Toggle("9") reported Present; ids were not normalized`)
	}
}

func TestToggle_LostRace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		policy   string
		wantFav  bool
		wantRows int
	}{
		{"coalesce keeps the winner's row", config.RacePolicyCoalesce, true, 1},
		{"remove serializes the loser after the winner", config.RacePolicyRemove, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newStore(t)
			ctx := context.Background()

			// The winner's toggle has already inserted the pair.
			winner := newEngine(s, tt.policy)
			res, err := winner.Toggle(ctx, "u1", "p9")
			if err != nil || !res.IsFavorite {
				t.Fatalf("winner Toggle() = %+v, %v", res, err)
			}

			before := testutil.ToFloat64(metrics.FavoriteRaceCompensations.WithLabelValues(tt.policy))

			stale := &stalePrecheck{Favorites: s}
			stale.staleReads.Store(1)
			loser := newEngine(stale, tt.policy)
			res, err = loser.Toggle(ctx, "u1", "p9")
			if err != nil {
				t.Fatalf("loser Toggle() error = %v", err)
			}
			if !res.Compensated {
				t.Error("loser Toggle() did not take the compensation path")
			}
			if res.IsFavorite != tt.wantFav {
				t.Errorf("loser Toggle() IsFavorite = %v, want %v", res.IsFavorite, tt.wantFav)
			}
			if n := countRows(t, s, "u1"); n != tt.wantRows {
				t.Errorf("rows = %d, want %d", n, tt.wantRows)
			}
			if after := testutil.ToFloat64(metrics.FavoriteRaceCompensations.WithLabelValues(tt.policy)); after <= before {
				t.Error("race compensation was not counted")
			}
		})
	}
}

func TestToggle_RetriesWhenWinnerVanishes(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	p := &phantomDuplicate{Favorites: s}
	p.failInserts.Store(1)
	e := newEngine(p, config.RacePolicyCoalesce)

	res, err := e.Toggle(ctx, "u1", "p9")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !res.IsFavorite {
		t.Error("Toggle() = Absent, want Present after retry")
	}
	if n := countRows(t, s, "u1"); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestToggle_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	p := &phantomDuplicate{Favorites: s}
	p.failInserts.Store(10)
	e := newEngine(p, config.RacePolicyCoalesce)

	if _, err := e.Toggle(context.Background(), "u1", "p9"); !errors.Is(err, ErrContended) {
		t.Errorf("Toggle() error = %v, want ErrContended", err)
	}
}

func TestToggle_ConcurrentNeverDuplicates(t *testing.T) {
	t.Parallel()

	for _, policy := range []string{config.RacePolicyCoalesce, config.RacePolicyRemove} {
		t.Run(policy, func(t *testing.T) {
			t.Parallel()
			s := newStore(t)
			e := newEngine(s, policy)
			ctx := context.Background()

			var g errgroup.Group
			for i := 0; i < 16; i++ {
				g.Go(func() error {
					_, err := e.Toggle(ctx, "u1", "p9")
					if errors.Is(err, ErrContended) || errors.Is(err, store.ErrConflict) {
						return nil
					}
					return err
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatalf("concurrent Toggle() error = %v", err)
			}

			if n := countRows(t, s, "u1"); n > 1 {
				t.Errorf("rows = %d, want at most 1", n)
			}
			present, err := e.IsFavorite(ctx, "u1", "p9")
			if err != nil {
				t.Fatalf("IsFavorite() error = %v", err)
			}
			if want := countRows(t, s, "u1") == 1; present != want {
				t.Errorf("IsFavorite() = %v, stored rows say %v", present, want)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	e := newEngine(s, config.RacePolicyCoalesce)
	ctx := context.Background()

	first, err := e.Add(ctx, "u1", "42")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !first.Created {
		t.Error("first Add() Created = false")
	}

	second, err := e.Add(ctx, "u1", "42")
	if err != nil {
		t.Fatalf("Add() again error = %v", err)
	}
	if second.Created || second.Favorite.ID != first.Favorite.ID {
		t.Errorf("second Add() = %+v, want existing record", second)
	}

	// Duplicate on insert after a stale check returns the existing record.
	stale := &stalePrecheck{Favorites: s}
	stale.staleReads.Store(1)
	third, err := newEngine(stale, config.RacePolicyCoalesce).Add(ctx, "u1", "42")
	if err != nil {
		t.Fatalf("Add() with stale check error = %v", err)
	}
	if third.Created || third.Favorite.ID != first.Favorite.ID {
		t.Errorf("Add() with stale check = %+v, want existing record", third)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	e := newEngine(s, config.RacePolicyCoalesce)
	ctx := context.Background()

	if err := e.Remove(ctx, "u1", "42"); !errors.Is(err, ErrNotFavorite) {
		t.Errorf("Remove(absent) error = %v, want ErrNotFavorite", err)
	}
	if _, err := e.Add(ctx, "u1", "42"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := e.Remove(ctx, "u1", "42"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	ok, err := e.IsFavorite(ctx, "u1", "42")
	if err != nil || ok {
		t.Errorf("IsFavorite() after Remove = %v, %v", ok, err)
	}
}

func TestListAndValidation(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	e := newEngine(s, "")
	ctx := context.Background()

	if e.Policy() != config.RacePolicyCoalesce {
		t.Errorf("default Policy() = %q, want coalesce", e.Policy())
	}

	favs, err := e.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if favs == nil || len(favs) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", favs)
	}

	for _, id := range []models.ProductID{"1", "2"} {
		if _, err := e.Toggle(ctx, "u1", id); err != nil {
			t.Fatalf("Toggle(%s) error = %v", id, err)
		}
	}
	if _, err := e.Toggle(ctx, "u2", "1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	favs, err = e.List(ctx, "u1")
	if err != nil || len(favs) != 2 {
		t.Errorf("List(u1) = %d favorites, %v; want 2", len(favs), err)
	}
	all, err := e.ListAll(ctx)
	if err != nil || len(all) != 3 {
		t.Errorf("ListAll() = %d favorites, %v; want 3", len(all), err)
	}

	if _, err := e.Toggle(ctx, "", "1"); !errors.Is(err, ErrMissingUser) {
		t.Errorf("Toggle(no user) error = %v, want ErrMissingUser", err)
	}
	if _, err := e.Toggle(ctx, "u1", ""); !errors.Is(err, models.ErrEmptyProductID) {
		t.Errorf("Toggle(no product) error = %v, want ErrEmptyProductID", err)
	}
}
