// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package authz

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEnforcer(t *testing.T, cfg *EnforcerConfig) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(cfg)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t, nil)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"admin", "/admin/orders", "read", true},
		{"admin", "/admin/orders/o-1/status", "write", true},
		{"admin", "/admin/users/u-1/role", "write", true},
		{"user", "/admin/orders", "read", false},
		{"user", "/admin/carts", "read", false},
		{"", "/admin/carts", "read", false},
		{"admin", "/carts/add", "write", false},
		{"admin", "/complaints", "read", true},
		{"admin", "/complaints/c-1", "read", true},
		{"admin", "/complaints/c-1", "delete", true},
		{"admin", "/complaints/c-1", "write", false},
		{"user", "/complaints", "read", false},
		{"user", "/complaints/c-1", "delete", false},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.action+" "+tt.object, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%q, %q, %q) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, admin, /admin/orders, read\np, support, /admin/carts, read\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	e := newTestEnforcer(t, &EnforcerConfig{PolicyPath: path})

	if ok, _ := e.Enforce("admin", "/admin/orders", "write"); ok {
		t.Error("file policy allowed admin write on orders; only read was granted")
	}
	if ok, _ := e.Enforce("support", "/admin/carts", "read"); !ok {
		t.Error("file policy denied support read on carts")
	}
}

func TestEnforcer_Cache(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t, &EnforcerConfig{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		if ok, err := e.Enforce("admin", "/admin/orders", "read"); err != nil || !ok {
			t.Fatalf("Enforce() = %v, %v", ok, err)
		}
	}
	if n := e.cache.len(); n != 1 {
		t.Errorf("cached decisions = %d, want 1", n)
	}

	uncached := newTestEnforcer(t, &EnforcerConfig{})
	if uncached.cache != nil {
		t.Error("zero CacheTTL should disable the cache")
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t, &EnforcerConfig{})
	if err := loadPolicy(e.enforcer, "p, admin\n"); err == nil {
		t.Error("loadPolicy() accepted a short p line")
	}
}
