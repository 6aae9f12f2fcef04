// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/models"
)

func issueFor(t *testing.T, m *JWTManager, id string, role models.Role) string {
	t.Helper()
	token, _, err := m.Issue(&models.User{ID: id, Role: role})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

// echoIdentity writes the resolved user ID, or "-" with no identity.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		_, _ = w.Write([]byte("-"))
		return
	}
	if logging.UserIDFromContext(r.Context()) != id.UserID {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(id.UserID))
})

func TestResolver_Required(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	token := issueFor(t, m, "u1", models.RoleUser)
	r := NewResolver(m, true, nil)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK, "u1"},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK, "u1"},
		{"cookie fallback", "", token, http.StatusOK, "u1"},
		{"missing token", "", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized, ""},
		{"tampered token", "Bearer " + token + "x", "", http.StatusUnauthorized, ""},
		{"header wins over cookie", "Bearer junk", token, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/u1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			r.Required(echoIdentity).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestResolver_Optional(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	token := issueFor(t, m, "u1", models.RoleUser)

	tests := []struct {
		name          string
		allowDeclared bool
		header        string
		wantStatus    int
		wantBody      string
	}{
		{"token attached", true, "Bearer " + token, http.StatusOK, "u1"},
		{"anonymous passes", true, "", http.StatusOK, "-"},
		{"invalid token ignored", true, "Bearer junk", http.StatusOK, "-"},
		{"declared disabled requires token", false, "", http.StatusUnauthorized, ""},
		{"declared disabled with token", false, "Bearer " + token, http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var gotErr error
			r := NewResolver(m, tt.allowDeclared, func(w http.ResponseWriter, _ *http.Request, err error) {
				gotErr = err
				w.WriteHeader(http.StatusUnauthorized)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.Optional(echoIdentity).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized && !errors.Is(gotErr, ErrUnauthenticated) {
				t.Errorf("error writer got %v, want ErrUnauthenticated", gotErr)
			}
		})
	}
}

func TestResolver_ResolveUserID(t *testing.T) {
	t.Parallel()

	user := &Identity{UserID: "u1", Role: models.RoleUser, Source: SourceToken}
	admin := &Identity{UserID: "a1", Role: models.RoleAdmin, Source: SourceToken}

	tests := []struct {
		name          string
		allowDeclared bool
		identity      *Identity
		declared      string
		want          string
		wantErr       error
	}{
		{"token only", false, user, "", "u1", nil},
		{"token matches declared", false, user, "u1", "u1", nil},
		{"declared whitespace trimmed", false, user, " u1 ", "u1", nil},
		{"token mismatch", true, user, "u2", "", ErrForbidden},
		{"admin acts for another user", false, admin, "u2", "u2", nil},
		{"declared allowed", true, nil, "u2", "u2", nil},
		{"declared disabled", false, nil, "u2", "", ErrUnauthenticated},
		{"nothing", true, nil, "", "", ErrUnauthenticated},
		{"declared with separator", true, nil, "u1:x", "", ErrInvalidUserID},
		{"declared with control byte", true, nil, "u1\x00", "", ErrInvalidUserID},
		{"admin override with separator", false, admin, "u1:x", "", ErrInvalidUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewResolver(nil, tt.allowDeclared, nil)
			ctx := context.Background()
			if tt.identity != nil {
				ctx = WithIdentity(ctx, tt.identity)
			}

			got, err := r.ResolveUserID(ctx, tt.declared)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveUserID() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveUserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{"u1", true},
		{"6650f1c2e4b0a1b2c3d4e5f6", true},
		{"8c1e0b8a-3f0e-4a51-9a59-2e7d6f3c1b90", true},
		{"", false},
		{"u1:x", false},
		{"u 1", false},
		{"u1\n", false},
		{"\xff", false},
		{strings.Repeat("a", maxUserIDLength+1), false},
	}
	for _, tt := range tests {
		if got := ValidUserID(tt.id); got != tt.want {
			t.Errorf("ValidUserID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
