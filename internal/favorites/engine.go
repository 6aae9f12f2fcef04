// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package favorites implements the per-user favorite-product relation.
//
// A (user, product) pair is either Absent or Present and Toggle flips it.
// The store's unique constraint on the pair is the only thing that keeps
// the relation free of duplicates: the existence check Toggle performs
// first is advisory and may be stale by the time the insert runs. When the
// insert loses to a concurrent writer (store.ErrDuplicate) the configured
// race policy decides what the losing call reports:
//
//   - coalesce: the loser re-reads the pair, finds the winner's row and
//     reports Present. Two concurrent toggles from Absent end as one add.
//   - remove: the loser is ordered after the winner and removes the pair,
//     reporting Absent.
//
// Under either policy the reported state matches what is stored when the
// call returns, and the conflict never reaches the caller.
package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

var (
	// ErrNotFavorite is returned by Remove when the pair does not exist.
	ErrNotFavorite = errors.New("favorite not found")

	// ErrContended is returned when a toggle kept losing races past the
	// retry limit.
	ErrContended = errors.New("favorite is being modified concurrently")

	// ErrMissingUser is returned when no user ID was resolved.
	ErrMissingUser = errors.New("userId is required")
)

// ToggleResult is the state a toggle resolved to.
type ToggleResult struct {
	IsFavorite bool
	// Favorite is the stored record when IsFavorite is true.
	Favorite *models.Favorite
	// Compensated is set when the call lost an insert race.
	Compensated bool
}

// AddResult reports whether Add created the record.
type AddResult struct {
	Favorite *models.Favorite
	Created  bool
}

// Engine implements the favorites operations.
type Engine struct {
	favorites  store.Favorites
	policy     string
	maxRetries int
	events     events.Publisher
}

// NewEngine creates an engine. publisher may be nil.
func NewEngine(favorites store.Favorites, cfg config.FavoritesConfig, publisher events.Publisher) *Engine {
	policy := cfg.RacePolicy
	if policy == "" {
		policy = config.RacePolicyCoalesce
	}
	retries := cfg.MaxRaceRetries
	if retries < 1 {
		retries = 1
	}
	return &Engine{
		favorites:  favorites,
		policy:     policy,
		maxRetries: retries,
		events:     events.OrNop(publisher),
	}
}

// Policy returns the active race policy.
func (e *Engine) Policy() string {
	return e.policy
}

func prepare(userID string, productID models.ProductID) (models.ProductID, error) {
	if userID == "" {
		return "", ErrMissingUser
	}
	return models.NormalizeProductID(string(productID))
}

// Toggle flips the pair between Absent and Present.
func (e *Engine) Toggle(ctx context.Context, userID string, productID models.ProductID) (*ToggleResult, error) {
	id, err := prepare(userID, productID)
	if err != nil {
		return nil, err
	}

	res, err := e.toggle(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	metrics.RecordFavoriteToggle(res.IsFavorite)
	e.events.Publish(ctx, events.TopicFavoriteToggled, userID, toggled{
		ProductID:   id,
		IsFavorite:  res.IsFavorite,
		Compensated: res.Compensated,
	})
	return res, nil
}

func (e *Engine) toggle(ctx context.Context, userID string, id models.ProductID) (*ToggleResult, error) {
	_, err := e.favorites.GetFavorite(ctx, userID, id)
	switch {
	case err == nil:
		// Present. A concurrent remover may beat us to it; the pair ends
		// Absent either way.
		if err := e.favorites.DeleteFavorite(ctx, userID, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("remove favorite: %w", err)
		}
		return &ToggleResult{IsFavorite: false}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("check favorite: %w", err)
	}

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		fav := &models.Favorite{UserID: userID, ProductID: id}
		err := e.favorites.InsertFavorite(ctx, fav)
		if err == nil {
			return &ToggleResult{IsFavorite: true, Favorite: fav}, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("add favorite: %w", err)
		}

		metrics.FavoriteRaceCompensations.WithLabelValues(e.policy).Inc()
		logging.Ctx(ctx).Debug().
			Str("product_id", id.String()).
			Str("policy", e.policy).
			Int("attempt", attempt).
			Msg("Favorite toggle lost insert race")

		if e.policy == config.RacePolicyRemove {
			if err := e.favorites.DeleteFavorite(ctx, userID, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("remove duplicate favorite: %w", err)
			}
			return &ToggleResult{IsFavorite: false, Compensated: true}, nil
		}

		winner, err := e.favorites.GetFavorite(ctx, userID, id)
		if err == nil {
			return &ToggleResult{IsFavorite: true, Favorite: winner, Compensated: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("re-read favorite: %w", err)
		}
		// Removed again between our insert and the re-read: try again.
	}
	return nil, ErrContended
}

// Add makes the pair Present. An existing record is returned unchanged.
func (e *Engine) Add(ctx context.Context, userID string, productID models.ProductID) (*AddResult, error) {
	id, err := prepare(userID, productID)
	if err != nil {
		return nil, err
	}

	existing, err := e.favorites.GetFavorite(ctx, userID, id)
	if err == nil {
		return &AddResult{Favorite: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check favorite: %w", err)
	}

	fav := &models.Favorite{UserID: userID, ProductID: id}
	if err := e.favorites.InsertFavorite(ctx, fav); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("add favorite: %w", err)
		}
		existing, err := e.favorites.GetFavorite(ctx, userID, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrContended
			}
			return nil, fmt.Errorf("re-read favorite: %w", err)
		}
		return &AddResult{Favorite: existing}, nil
	}

	e.events.Publish(ctx, events.TopicFavoriteAdded, userID, toggled{ProductID: id, IsFavorite: true})
	return &AddResult{Favorite: fav, Created: true}, nil
}

// Remove makes the pair Absent. ErrNotFavorite if it was not Present.
func (e *Engine) Remove(ctx context.Context, userID string, productID models.ProductID) error {
	id, err := prepare(userID, productID)
	if err != nil {
		return err
	}

	if err := e.favorites.DeleteFavorite(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFavorite
		}
		return fmt.Errorf("remove favorite: %w", err)
	}

	e.events.Publish(ctx, events.TopicFavoriteRemoved, userID, toggled{ProductID: id})
	return nil
}

// IsFavorite reports whether the pair is Present.
func (e *Engine) IsFavorite(ctx context.Context, userID string, productID models.ProductID) (bool, error) {
	id, err := prepare(userID, productID)
	if err != nil {
		return false, err
	}

	_, err = e.favorites.GetFavorite(ctx, userID, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check favorite: %w", err)
	}
}

// List returns the user's favorites, newest first.
func (e *Engine) List(ctx context.Context, userID string) ([]*models.Favorite, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	favs, err := e.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if favs == nil {
		favs = []*models.Favorite{}
	}
	return favs, nil
}

// ListAll returns every favorite.
func (e *Engine) ListAll(ctx context.Context) ([]*models.Favorite, error) {
	favs, err := e.favorites.ListAllFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if favs == nil {
		favs = []*models.Favorite{}
	}
	return favs, nil
}

type toggled struct {
	ProductID   models.ProductID `json:"productId"`
	IsFavorite  bool             `json:"isFavorite"`
	Compensated bool             `json:"compensated,omitempty"`
}
