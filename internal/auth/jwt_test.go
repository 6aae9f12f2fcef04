// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/models"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

// testSecurityConfig returns a standard test security config for JWT
func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
	}
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

// signRaw signs arbitrary claims with the test secret.
func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestNewJWTManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantTTL time.Duration
		wantErr bool
	}{
		{"valid secret", testSecurityConfig(), time.Hour, false},
		{"default ttl", &config.SecurityConfig{JWTSecret: testSecret}, 7 * 24 * time.Hour, false},
		{"empty secret", &config.SecurityConfig{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if m.ttl != tt.wantTTL {
				t.Errorf("ttl = %v, want %v", m.ttl, tt.wantTTL)
			}
		})
	}
}

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	user := &models.User{ID: "u-123", Email: "a@example.com", Role: models.RoleAdmin}
	token, expires, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(expires) <= 0 || time.Until(expires) > time.Hour {
		t.Errorf("expires = %v, want within an hour", expires)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ResolvedUserID() != "u-123" || claims.Email != "a@example.com" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestResolvedUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{"userId wins", Claims{UserID: "a", LegacyID: "b", RegisteredClaims: jwt.RegisteredClaims{Subject: "c"}}, "a"},
		{"legacy id", Claims{LegacyID: "b", RegisteredClaims: jwt.RegisteredClaims{Subject: "c"}}, "b"},
		{"subject", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "c"}}, "c"},
		{"none", Claims{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.claims.ResolvedUserID(); got != tt.want {
				t.Errorf("ResolvedUserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	now := time.Now()

	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		}
	}
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	tests := []struct {
		name  string
		token string
		is    error
	}{
		{"garbage", "not.a.token", nil},
		{"wrong secret", signRaw(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), &Claims{UserID: "u1", RegisteredClaims: valid()}), nil},
		{"expired", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{UserID: "u1", RegisteredClaims: expired}), jwt.ErrTokenExpired},
		{"none algorithm", signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{UserID: "u1", RegisteredClaims: valid()}), nil},
		{"no user claim", signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{RegisteredClaims: valid()}), ErrNoSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := m.ValidateToken(tt.token)
			if err == nil {
				t.Fatal("ValidateToken() expected error, got nil")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestValidateToken_LegacyIDClaim(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	token := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"id":  "legacy-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if got := claims.ResolvedUserID(); got != "legacy-7" {
		t.Errorf("ResolvedUserID() = %q, want legacy-7", got)
	}
}

func TestPassword(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("12345", 4); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("HashPassword(short) error = %v, want ErrPasswordTooShort", err)
	}

	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if ok, err := CheckPassword(hash, "hunter22"); err != nil || !ok {
		t.Errorf("CheckPassword(correct) = %v, %v", ok, err)
	}
	if ok, err := CheckPassword(hash, "hunter23"); err != nil || ok {
		t.Errorf("CheckPassword(wrong) = %v, %v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "hunter22"); err == nil {
		t.Error("CheckPassword(malformed hash) expected error")
	}
}
