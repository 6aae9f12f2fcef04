// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/samay/internal/accounts"
	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/cart"
	"github.com/tomtom215/samay/internal/complaints"
	"github.com/tomtom215/samay/internal/favorites"
	"github.com/tomtom215/samay/internal/orders"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_cart.go: cart endpoints
//   - handlers_favorites.go: favorites endpoints
//   - handlers_auth.go: register, login, me
//   - handlers_orders.go: checkout and order history
//   - handlers_admin.go: admin listings, order status, roles
//   - handlers_complaints.go: complaint form and inbox
//   - handlers_health.go: health endpoint
type Handler struct {
	carts      *cart.Service
	favorites  *favorites.Engine
	accounts   *accounts.Service
	orders     *orders.Service
	complaints *complaints.Service
	resolver   *auth.Resolver
	store      Pinger
	version    string
	startTime  time.Time
}

// Services groups the domain services the handler serves.
type Services struct {
	Carts      *cart.Service
	Favorites  *favorites.Engine
	Accounts   *accounts.Service
	Orders     *orders.Service
	Complaints *complaints.Service
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(services, resolver, st, version)
//	router := api.NewRouter(handler, resolver, enforcer, chiMW, "/api/v1")
//	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
func NewHandler(svc Services, resolver *auth.Resolver, store Pinger, version string) *Handler {
	return &Handler{
		carts:      svc.Carts,
		favorites:  svc.Favorites,
		accounts:   svc.Accounts,
		orders:     svc.Orders,
		complaints: svc.Complaints,
		resolver:   resolver,
		store:      store,
		version:    version,
		startTime:  time.Now(),
	}
}

// actingUser resolves the user a request operates on from the token
// identity and the declared userId (path or body value, then the userId
// query parameter). With declared IDs enabled, an anonymous request that
// declares nothing gets missing instead of a 401.
func (h *Handler) actingUser(r *http.Request, declared string, missing error) (string, error) {
	if strings.TrimSpace(declared) == "" {
		declared = r.URL.Query().Get("userId")
	}
	uid, err := h.resolver.ResolveUserID(r.Context(), declared)
	if errors.Is(err, auth.ErrUnauthenticated) && h.resolver.AllowsDeclared() {
		return "", missing
	}
	return uid, err
}

// tokenUser returns the identity attached by a required-auth route.
func tokenUser(r *http.Request) (*auth.Identity, error) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		return nil, auth.ErrUnauthenticated
	}
	return id, nil
}
