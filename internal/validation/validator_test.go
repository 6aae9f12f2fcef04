// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/samay/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

type lineRequest struct {
	UserID    string           `json:"userId" validate:"required"`
	ProductID models.ProductID `json:"productId" validate:"productid"`
	Quantity  int              `json:"quantity" validate:"gte=0,lte=99"`
	Email     string           `json:"email,omitempty" validate:"omitempty,email"`
	Name      string           `json:"name" validate:"max=5"`
}

type adminRequest struct {
	Role          string `json:"role" validate:"role"`
	Status        string `json:"status" validate:"omitempty,orderstatus"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty,paymentstatus"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{"valid line", &lineRequest{UserID: "u1", ProductID: "7", Quantity: 1}, "", ""},
		{"zero-padded product", &lineRequest{UserID: "u1", ProductID: "007"}, "", ""},
		{"missing user", &lineRequest{ProductID: "7"}, "userId", "userId is required"},
		{"blank product", &lineRequest{UserID: "u1", ProductID: "   "}, "productId", "productId must be a product identifier"},
		{"quantity too large", &lineRequest{UserID: "u1", ProductID: "7", Quantity: 100}, "quantity", "quantity must be less than or equal to 99"},
		{"bad email", &lineRequest{UserID: "u1", ProductID: "7", Email: "nope"}, "email", "email must be a valid email address"},
		{"long name", &lineRequest{UserID: "u1", ProductID: "7", Name: "Chronograph"}, "name", "name must be at most 5 characters"},
		{"valid admin", &adminRequest{Role: "Admin", Status: "shipped", PaymentStatus: "paid"}, "", ""},
		{"bad role", &adminRequest{Role: "root"}, "role", "role must be user or admin"},
		{"bad status", &adminRequest{Role: "user", Status: "lost"}, "status", ""},
		{"bad payment", &adminRequest{Role: "user", PaymentStatus: "maybe"}, "paymentStatus", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Errorf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := verr.Fields[0].Field; got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if tt.wantMsg != "" && verr.Fields[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", verr.Fields[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&lineRequest{ProductID: "7"}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" || single.Message != "userId is required" {
		t.Errorf("single = %+v", single)
	}
	if single.Details["field"] != "userId" {
		t.Errorf("single details = %v", single.Details)
	}

	multi := ValidateStruct(&lineRequest{Quantity: -1}).ToAPIError()
	if !strings.Contains(multi.Message, "userId is required") || !strings.Contains(multi.Message, "; ") {
		t.Errorf("multi message = %q", multi.Message)
	}
	fields, ok := multi.Details["fields"].([]FieldError)
	if !ok || len(fields) != 3 {
		t.Errorf("multi details = %v, want 3 fields", multi.Details)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty = %+v", empty)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	t.Parallel()
	verr := ValidateStruct("not a struct")
	if verr == nil || verr.Fields[0].Field != "request" {
		t.Errorf("ValidateStruct(string) = %v", verr)
	}
}
