// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity sources.
const (
	SourceToken    = "token"
	SourceDeclared = "declared"
)

var (
	// ErrUnauthenticated is returned when no identity could be resolved.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when a non-admin token names one user and
	// the request declares another.
	ErrForbidden = errors.New("cannot act on behalf of another user")

	// ErrInvalidUserID is returned for a declared userId that is too long
	// or contains control or separator characters.
	ErrInvalidUserID = errors.New("userId contains invalid characters")
)

// maxUserIDLength bounds declared user IDs.
const maxUserIDLength = 128

// ValidUserID reports whether id is acceptable as a declared user ID.
func ValidUserID(id string) bool {
	if id == "" || len(id) > maxUserIDLength {
		return false
	}
	for _, r := range id {
		if r == ':' || r == utf8.RuneError || unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Identity is the caller resolved for a request.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
	Source string
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the token identity attached by the resolver,
// or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}

// ErrorWriter renders an authentication failure. The API layer supplies one
// that writes the standard envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Resolver is the session identity middleware. Required mode rejects
// requests without a valid bearer token; optional mode attaches whatever
// identity the token yields and lets handlers fall back to a declared
// userId.
type Resolver struct {
	jwt           *JWTManager
	allowDeclared bool
	writeError    ErrorWriter
}

// NewResolver creates a resolver. When allowDeclared is false optional
// routes behave like required ones.
func NewResolver(jwt *JWTManager, allowDeclared bool, writeError ErrorWriter) *Resolver {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Resolver{jwt: jwt, allowDeclared: allowDeclared, writeError: writeError}
}

// AllowsDeclared reports whether a caller-declared userId is accepted.
func (m *Resolver) AllowsDeclared() bool {
	return m.allowDeclared
}

// extractToken reads the bearer token from the Authorization header, or the
// "token" cookie when there is no header. ok is false when neither is set.
func extractToken(r *http.Request) (token string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, cerr := r.Cookie("token")
		if cerr != nil || cookie.Value == "" {
			return "", false, nil
		}
		return cookie.Value, true, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// resolve returns the token identity, nil when no token was sent, or an
// error for a malformed, expired or tampered token.
func (m *Resolver) resolve(r *http.Request) (*Identity, error) {
	token, ok, err := extractToken(r)
	if !ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID: claims.ResolvedUserID(),
		Email:  claims.Email,
		Role:   models.ParseRole(claims.Role),
		Source: SourceToken,
	}, nil
}

func (m *Resolver) attach(r *http.Request, id *Identity) *http.Request {
	ctx := WithIdentity(r.Context(), id)
	ctx = logging.ContextWithUserID(ctx, id.UserID)
	return r.WithContext(ctx)
}

// Required rejects the request with 401 unless a valid token is present.
func (m *Resolver) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolve(r)
		if err != nil || id == nil {
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			}
			metrics.IdentityResolutions.WithLabelValues("required", "rejected").Inc()
			m.writeError(w, r, ErrUnauthenticated)
			return
		}
		metrics.IdentityResolutions.WithLabelValues("required", "token").Inc()
		next.ServeHTTP(w, m.attach(r, id))
	})
}

// Optional attaches a token identity when one verifies and otherwise lets
// the request through with no identity. With declared IDs disabled it
// behaves like Required.
func (m *Resolver) Optional(next http.Handler) http.Handler {
	if !m.allowDeclared {
		return m.Required(next)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolve(r)
		switch {
		case err != nil:
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid token on optional route")
			metrics.IdentityResolutions.WithLabelValues("optional", "invalid").Inc()
		case id == nil:
			metrics.IdentityResolutions.WithLabelValues("optional", "anonymous").Inc()
		default:
			metrics.IdentityResolutions.WithLabelValues("optional", "token").Inc()
			r = m.attach(r, id)
		}
		next.ServeHTTP(w, r)
	})
}

// ResolveUserID picks the user a request acts on. A token identity wins;
// a declared ID that disagrees with it is forbidden unless the caller is
// an admin. Without a token the declared ID is used when allowed.
func (m *Resolver) ResolveUserID(ctx context.Context, declared string) (string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && !ValidUserID(declared) {
		return "", ErrInvalidUserID
	}

	if id := IdentityFromContext(ctx); id != nil {
		if declared == "" || declared == id.UserID {
			return id.UserID, nil
		}
		if id.IsAdmin() {
			return declared, nil
		}
		return "", ErrForbidden
	}

	if m.allowDeclared && declared != "" {
		return declared, nil
	}
	return "", ErrUnauthenticated
}
