// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/authz"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/middleware"
)

// slowRequestThreshold promotes access log lines to warn.
const slowRequestThreshold = 2 * time.Second

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	resolver      *auth.Resolver
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	basePath      string
}

// NewRouter creates a router. basePath defaults to /api/v1.
func NewRouter(handler *Handler, resolver *auth.Resolver, enforcer *authz.Enforcer, chiMW *ChiMiddleware, basePath string) *Router {
	basePath = "/" + strings.Trim(basePath, "/")
	if basePath == "/" {
		basePath = "/api/v1"
	}
	return &Router{
		handler:       handler,
		resolver:      resolver,
		authz:         authz.NewMiddleware(enforcer, basePath, writeError),
		chiMiddleware: chiMW,
		basePath:      basePath,
	}
}

// AuthErrorWriter renders resolver failures as envelopes. Pass it to
// auth.NewResolver.
func AuthErrorWriter(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err)
}

// recoverer turns a handler panic into a 500 envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from handler panic")
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global middleware, outermost first.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.Prometheus)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Handle("/metrics", promhttp.Handler())

	r.Route(router.basePath, func(r chi.Router) {
		r.Use(APISecurityHeaders)
		r.Use(router.chiMiddleware.RateLimit())

		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/register", h.Register)
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/login", h.Login)
			r.With(router.resolver.Required).Get("/me", h.Me)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Use(router.resolver.Optional)
			r.Get("/user/{userId}", h.GetCart)
			r.Delete("/user/{userId}", h.DeleteCart)
			r.Post("/add", h.AddToCart)
			r.Put("/update", h.UpdateCart)
			r.Post("/remove", h.RemoveFromCart)
			r.Post("/clear", h.ClearCart)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(router.resolver.Optional)
			r.Post("/toggle", h.ToggleFavorite)
			r.Post("/add", h.AddFavorite)
			r.Post("/remove", h.RemoveFavorite)
			r.Get("/user/{userId}", h.ListFavorites)
			r.Get("/check/{userId}/{productId}", h.CheckFavorite)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(router.resolver.Required)
			r.Post("/", h.Checkout)
			r.Get("/my", h.MyOrders)
			r.Get("/{orderId}", h.GetOrder)
		})

		r.Route("/complaints", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/", h.FileComplaint)
			r.Group(func(r chi.Router) {
				r.Use(router.resolver.Required)
				r.Use(router.authz.AuthorizeRequest)
				r.Get("/", h.ListComplaints)
				r.Get("/{complaintId}", h.GetComplaint)
				r.Delete("/{complaintId}", h.DeleteComplaint)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(router.resolver.Required)
			r.Use(router.authz.AuthorizeRequest)
			r.Get("/orders", h.AdminListOrders)
			r.Patch("/orders/{orderId}/status", h.AdminUpdateOrderStatus)
			r.Get("/carts", h.AdminListCarts)
			r.Get("/favorites", h.AdminListFavorites)
			r.Put("/users/{userId}/role", h.AdminSetRole)
		})
	})

	return r
}
