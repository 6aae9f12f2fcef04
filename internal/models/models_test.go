// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package models

import (
	"math"
	"testing"
)

func TestSumLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []CartLine
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []CartLine{{Price: 100, Quantity: 3}}, 300},
		{"cents do not drift", []CartLine{{Price: 0.1, Quantity: 3}, {Price: 0.2, Quantity: 1}}, 0.5},
		{"mixed", []CartLine{{Price: 19.99, Quantity: 3}, {Price: 0.01, Quantity: 1}}, 59.98},
		{"large prices", []CartLine{{Price: 199.99, Quantity: 3}, {Price: 0.1, Quantity: 3}}, 600.27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SumLines(tt.lines); got != tt.want {
				t.Errorf("SumLines() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		have, add int
		limit     int
		want      int
		wantOK    bool
	}{
		{"within limit", 1, 2, 10, 3, true},
		{"at limit", 4, 6, 10, 10, true},
		{"above limit", 4, 7, 10, 0, false},
		{"overflow", 1, math.MaxInt, math.MaxInt, 0, false},
		{"overflow near max", math.MaxInt - 1, 5, MaxLineQuantity, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := AddQuantity(tt.have, tt.add, tt.limit)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("AddQuantity(%d, %d, %d) = %d, %v; want %d, %v", tt.have, tt.add, tt.limit, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCartClone(t *testing.T) {
	t.Parallel()

	c := &Cart{UserID: "u1", Items: []CartLine{{ProductID: "7", Quantity: 1}}}
	cp := c.Clone()
	cp.Items[0].Quantity = 9
	if c.Items[0].Quantity != 1 {
		t.Error("Clone() shares the items slice with the original")
	}
}

func TestRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		parsed    Role
		validates bool
	}{
		{"user", RoleUser, true},
		{"admin", RoleAdmin, true},
		{" Admin ", RoleAdmin, true},
		{"superuser", RoleUser, false},
		{"", RoleUser, false},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.parsed {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.parsed)
		}
		_, err := ValidateRole(tt.in)
		if (err == nil) != tt.validates {
			t.Errorf("ValidateRole(%q) error = %v, want valid=%v", tt.in, err, tt.validates)
		}
	}

	u := &User{Role: "ADMIN"}
	if !u.IsAdmin() {
		t.Error("IsAdmin() = false for a mixed-case admin role")
	}
	if p := u.Profile(); p.Role != RoleAdmin {
		t.Errorf("Profile().Role = %q", p.Role)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	if !OrderShipped.Valid() || OrderStatus("lost").Valid() {
		t.Error("OrderStatus.Valid() misclassifies")
	}
	if !PaymentRefunded.Valid() || PaymentStatus("").Valid() {
		t.Error("PaymentStatus.Valid() misclassifies")
	}
	if got := NormalizeEmail("  Bob@Example.COM "); got != "bob@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
