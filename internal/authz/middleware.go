// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package authz

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
)

// ErrInsufficientRole is passed to the error writer when the policy denies
// the request.
var ErrInsufficientRole = errors.New("insufficient permissions")

// Middleware enforces the policy on routes behind auth.Resolver.Required.
type Middleware struct {
	enforcer   *Enforcer
	basePath   string
	writeError auth.ErrorWriter
}

// NewMiddleware creates the authorization middleware. basePath is stripped
// from request paths before they are matched against policy objects.
func NewMiddleware(enforcer *Enforcer, basePath string, writeError auth.ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, err error) {
			status := http.StatusForbidden
			if errors.Is(err, auth.ErrUnauthenticated) {
				status = http.StatusUnauthorized
			}
			http.Error(w, err.Error(), status)
		}
	}
	return &Middleware{
		enforcer:   enforcer,
		basePath:   strings.TrimRight(basePath, "/"),
		writeError: writeError,
	}
}

// AuthorizeRequest derives the action from the HTTP method and authorizes
// the caller's role against the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		if id == nil {
			m.writeError(w, r, auth.ErrUnauthenticated)
			return
		}

		object := strings.TrimPrefix(r.URL.Path, m.basePath)
		action := methodToAction(r.Method)

		allowed, err := m.enforcer.Enforce(string(id.Role), object, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			metrics.AuthzDecisions.WithLabelValues("error").Inc()
			m.writeError(w, r, err)
			return
		}
		if !allowed {
			logging.Ctx(r.Context()).Warn().
				Str("role", string(id.Role)).
				Str("object", object).
				Str("action", action).
				Msg("Authorization denied")
			metrics.AuthzDecisions.WithLabelValues("denied").Inc()
			m.writeError(w, r, ErrInsufficientRole)
			return
		}

		metrics.AuthzDecisions.WithLabelValues("allowed").Inc()
		next.ServeHTTP(w, r)
	})
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
