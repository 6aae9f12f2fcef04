// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
)

// ResilientStore decorates a backend with a circuit breaker and per-call
// metrics. Only infrastructure failures count toward tripping the breaker:
// not-found, duplicate, conflict, cancellation and errors returned by a
// caller's mutation are passed through untouched. While the breaker is open
// every call fails fast with ErrUnavailable.
type ResilientStore struct {
	inner   Store
	backend string
	cb      *gobreaker.CircuitBreaker[interface{}]
}

// NewResilientStore wraps inner. A disabled breaker config still records metrics.
func NewResilientStore(inner Store, backend string, cfg config.BreakerConfig) *ResilientStore {
	r := &ResilientStore{inner: inner, backend: backend}
	if !cfg.Enabled {
		return r
	}

	name := "store_" + backend
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Store circuit breaker state changed")
		},
	}
	r.cb = gobreaker.NewCircuitBreaker[interface{}](settings)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return r
}

// Unwrap returns the decorated backend.
func (r *ResilientStore) Unwrap() Store {
	return r.inner
}

// passThrough marks an error that must not count as a breaker failure.
type passThrough struct{ err error }

func (p passThrough) Error() string { return p.err.Error() }
func (p passThrough) Unwrap() error { return p.err }

func expected(err error) bool {
	return IsDomainError(err) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func call[T any](r *ResilientStore, op string, fn func() (T, error)) (T, error) {
	start := time.Now()

	var passErr error
	guarded := func() (interface{}, error) {
		v, err := fn()
		var pt passThrough
		if errors.As(err, &pt) {
			passErr = pt.err
			return v, nil
		}
		if err != nil && expected(err) {
			passErr = err
			return v, nil
		}
		return v, err
	}

	var (
		res interface{}
		err error
	)
	if r.cb != nil {
		res, err = r.cb.Execute(guarded)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	} else {
		res, err = guarded()
	}
	if err == nil && passErr != nil {
		err = passErr
	}

	metrics.RecordStoreOperation(r.backend, op, time.Since(start), classify(err))

	var zero T
	if v, ok := res.(T); ok && err == nil {
		return v, nil
	}
	return zero, err
}

func exec(r *ResilientStore, op string, fn func() error) error {
	_, err := call(r, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (r *ResilientStore) CreateUser(ctx context.Context, user *models.User) error {
	return exec(r, "create_user", func() error { return r.inner.CreateUser(ctx, user) })
}

func (r *ResilientStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return call(r, "get_user", func() (*models.User, error) { return r.inner.GetUser(ctx, id) })
}

func (r *ResilientStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return call(r, "get_user_by_email", func() (*models.User, error) { return r.inner.GetUserByEmail(ctx, email) })
}

func (r *ResilientStore) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return call(r, "set_user_role", func() (*models.User, error) { return r.inner.SetUserRole(ctx, id, role) })
}

func (r *ResilientStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return call(r, "list_users", func() ([]*models.User, error) { return r.inner.ListUsers(ctx) })
}

func (r *ResilientStore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return call(r, "get_cart", func() (*models.Cart, error) { return r.inner.GetCart(ctx, userID) })
}

func (r *ResilientStore) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	return call(r, "get_or_create_cart", func() (*models.Cart, error) { return r.inner.GetOrCreateCart(ctx, userID) })
}

func (r *ResilientStore) UpdateCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return call(r, "update_cart", func() (*models.Cart, error) {
		var fnErr error
		cart, err := r.inner.UpdateCart(ctx, userID, func(c *models.Cart) error {
			fnErr = fn(c)
			return fnErr
		})
		if err != nil && fnErr != nil {
			return cart, passThrough{err}
		}
		return cart, err
	})
}

func (r *ResilientStore) UpsertCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return call(r, "upsert_cart", func() (*models.Cart, error) {
		var fnErr error
		cart, err := r.inner.UpsertCart(ctx, userID, func(c *models.Cart) error {
			fnErr = fn(c)
			return fnErr
		})
		if err != nil && fnErr != nil {
			return cart, passThrough{err}
		}
		return cart, err
	})
}

func (r *ResilientStore) DeleteCart(ctx context.Context, userID string) error {
	return exec(r, "delete_cart", func() error { return r.inner.DeleteCart(ctx, userID) })
}

func (r *ResilientStore) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	return call(r, "list_carts", func() ([]*models.Cart, error) { return r.inner.ListCarts(ctx) })
}

func (r *ResilientStore) GetFavorite(ctx context.Context, userID string, productID models.ProductID) (*models.Favorite, error) {
	return call(r, "get_favorite", func() (*models.Favorite, error) { return r.inner.GetFavorite(ctx, userID, productID) })
}

func (r *ResilientStore) InsertFavorite(ctx context.Context, fav *models.Favorite) error {
	return exec(r, "insert_favorite", func() error { return r.inner.InsertFavorite(ctx, fav) })
}

func (r *ResilientStore) DeleteFavorite(ctx context.Context, userID string, productID models.ProductID) error {
	return exec(r, "delete_favorite", func() error { return r.inner.DeleteFavorite(ctx, userID, productID) })
}

func (r *ResilientStore) ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return call(r, "list_favorites", func() ([]*models.Favorite, error) { return r.inner.ListFavorites(ctx, userID) })
}

func (r *ResilientStore) ListAllFavorites(ctx context.Context) ([]*models.Favorite, error) {
	return call(r, "list_all_favorites", func() ([]*models.Favorite, error) { return r.inner.ListAllFavorites(ctx) })
}

func (r *ResilientStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return exec(r, "create_order", func() error { return r.inner.CreateOrder(ctx, order) })
}

func (r *ResilientStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return call(r, "get_order", func() (*models.Order, error) { return r.inner.GetOrder(ctx, id) })
}

func (r *ResilientStore) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return call(r, "list_orders_by_user", func() ([]*models.Order, error) { return r.inner.ListOrdersByUser(ctx, userID) })
}

func (r *ResilientStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return call(r, "list_orders", func() ([]*models.Order, error) { return r.inner.ListOrders(ctx) })
}

func (r *ResilientStore) UpdateOrder(ctx context.Context, id string, fn OrderMutation) (*models.Order, error) {
	return call(r, "update_order", func() (*models.Order, error) {
		var fnErr error
		order, err := r.inner.UpdateOrder(ctx, id, func(o *models.Order) error {
			fnErr = fn(o)
			return fnErr
		})
		if err != nil && fnErr != nil {
			return order, passThrough{err}
		}
		return order, err
	})
}

func (r *ResilientStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return exec(r, "create_complaint", func() error { return r.inner.CreateComplaint(ctx, c) })
}

func (r *ResilientStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	return call(r, "get_complaint", func() (*models.Complaint, error) { return r.inner.GetComplaint(ctx, id) })
}

func (r *ResilientStore) ListComplaints(ctx context.Context) ([]*models.Complaint, error) {
	return call(r, "list_complaints", func() ([]*models.Complaint, error) { return r.inner.ListComplaints(ctx) })
}

func (r *ResilientStore) DeleteComplaint(ctx context.Context, id string) error {
	return exec(r, "delete_complaint", func() error { return r.inner.DeleteComplaint(ctx, id) })
}

// Ping bypasses the breaker so health checks see the real backend state.
func (r *ResilientStore) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func (r *ResilientStore) Close() error {
	return r.inner.Close()
}

// BreakerState reports the breaker state, or "disabled".
func (r *ResilientStore) BreakerState() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}
