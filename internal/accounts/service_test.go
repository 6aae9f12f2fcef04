// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store, *auth.JWTManager) {
	t.Helper()

	s, err := store.OpenBadger(config.BadgerConfig{InMemory: true}, 10)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret: "test-secret-key-that-is-at-least-32-characters-long",
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	// bcrypt.MinCost keeps the tests fast.
	return NewService(s, tokens, 4, nil), s, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, " Asha ", "  Asha@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.User.Email != "asha@example.com" || reg.User.Name != "Asha" || reg.User.Role != models.RoleUser {
		t.Errorf("Register() user = %+v", reg.User)
	}
	claims, err := tokens.ValidateToken(reg.Token)
	if err != nil {
		t.Fatalf("ValidateToken(register token) error = %v", err)
	}
	if claims.ResolvedUserID() != reg.User.ID {
		t.Errorf("token user = %q, want %q", claims.ResolvedUserID(), reg.User.ID)
	}

	before := testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", "success"))
	login, err := svc.Login(ctx, "ASHA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("Login() user = %q, want %q", login.User.ID, reg.User.ID)
	}
	if after := testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", "success")); after != before+1 {
		t.Errorf("login success counter = %v, want %v", after, before+1)
	}

	me, err := svc.Me(ctx, reg.User.ID)
	if err != nil || me.Email != "asha@example.com" {
		t.Errorf("Me() = %+v, %v", me, err)
	}
}

func TestRegister_Errors(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "A", "a@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"duplicate email", "B", "A@example.com", "secret2", ErrUserExists},
		{"missing name", "", "b@example.com", "secret1", ErrMissingFields},
		{"missing email", "B", "  ", "secret1", ErrMissingFields},
		{"short password", "B", "b@example.com", "12345", auth.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "A", "a@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@example.com", "secret2"},
		{"unknown email", "b@example.com", "secret1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestSetRole(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "A", "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := svc.SetRole(ctx, reg.User.ID, " ADMIN ")
	if err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if p.Role != models.RoleAdmin {
		t.Errorf("SetRole() role = %q, want admin", p.Role)
	}

	if _, err := svc.SetRole(ctx, reg.User.ID, "superuser"); err == nil {
		t.Error("SetRole(superuser) expected error")
	}
	if _, err := svc.SetRole(ctx, "missing", "user"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetRole(missing) error = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Me(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Me(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestNormalizeRoles(t *testing.T) {
	t.Parallel()
	svc, s, _ := newTestService(t)
	ctx := context.Background()

	for _, u := range []*models.User{
		{Email: "ok@example.com", Role: models.RoleAdmin},
		{Email: "blank@example.com", Role: ""},
		{Email: "caps@example.com", Role: "Admin"},
		{Email: "bogus@example.com", Role: "superuser"},
	} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.Email, err)
		}
	}

	fixed, err := svc.NormalizeRoles(ctx)
	if err != nil {
		t.Fatalf("NormalizeRoles() error = %v", err)
	}
	if fixed != 3 {
		t.Errorf("NormalizeRoles() fixed = %d, want 3", fixed)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	want := map[string]models.Role{
		"ok@example.com":    models.RoleAdmin,
		"blank@example.com": models.RoleUser,
		"caps@example.com":  models.RoleAdmin,
		"bogus@example.com": models.RoleUser,
	}
	for _, u := range users {
		if u.Role != want[u.Email] {
			t.Errorf("user %s role = %q, want %q", u.Email, u.Role, want[u.Email])
		}
	}

	if fixed, _ := svc.NormalizeRoles(ctx); fixed != 0 {
		t.Errorf("second NormalizeRoles() fixed = %d, want 0", fixed)
	}
}
