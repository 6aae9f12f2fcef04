// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package store is the persistence layer for users, carts, favorites,
// orders and complaints. Three backends implement Store: BadgerDB (embedded, default),
// PostgreSQL (lib/pq) and MongoDB. Each enforces the same guarantees:
//
//   - users are unique by normalized email
//   - there is at most one cart per user, and UpdateCart/UpsertCart apply
//     their mutation atomically (no lost updates between concurrent writers)
//   - a (userId, productId) favorite pair exists at most once; a second
//     insert fails with ErrDuplicate
//
// Callers map the sentinel errors below to HTTP status codes.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/samay/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrConflict is returned when a transactional update kept losing to
	// concurrent writers and gave up after the configured retries.
	ErrConflict = errors.New("store: too many concurrent modifications")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("store: unavailable")
)

// CartMutation edits a cart in place inside a store transaction. Returning
// an error aborts the transaction and the error is passed through.
type CartMutation func(cart *models.Cart) error

// OrderMutation edits an order in place inside a store transaction.
type OrderMutation func(order *models.Order) error

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Carts persists cart aggregates keyed by user ID.
type Carts interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// GetOrCreateCart returns the user's cart, creating an empty one if needed.
	GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error)
	// UpdateCart applies fn to an existing cart. ErrNotFound if there is none.
	UpdateCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error)
	// UpsertCart applies fn to the user's cart, creating it first if needed.
	UpsertCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
	ListCarts(ctx context.Context) ([]*models.Cart, error)
}

// Favorites persists (user, product) favorite pairs.
type Favorites interface {
	GetFavorite(ctx context.Context, userID string, productID models.ProductID) (*models.Favorite, error)
	// InsertFavorite fails with ErrDuplicate if the pair already exists.
	InsertFavorite(ctx context.Context, fav *models.Favorite) error
	// DeleteFavorite fails with ErrNotFound if the pair does not exist.
	DeleteFavorite(ctx context.Context, userID string, productID models.ProductID) error
	// ListFavorites returns the user's favorites, newest first.
	ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error)
	ListAllFavorites(ctx context.Context) ([]*models.Favorite, error)
}

// Orders persists checkout snapshots.
type Orders interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrdersByUser returns the user's orders, newest first.
	ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, id string, fn OrderMutation) (*models.Order, error)
}

// Complaints persists contact-form submissions.
type Complaints interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	// ListComplaints returns every complaint, newest first.
	ListComplaints(ctx context.Context) ([]*models.Complaint, error)
	// DeleteComplaint fails with ErrNotFound if there is no such complaint.
	DeleteComplaint(ctx context.Context, id string) error
}

// Store is the full persistence handle. It is created once at startup and
// closed on shutdown.
type Store interface {
	Users
	Carts
	Favorites
	Orders
	Complaints
	Ping(ctx context.Context) error
	Close() error
}

// IsDomainError reports whether err is an expected outcome (missing or
// duplicate record) rather than an infrastructure failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate)
}
