// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// AddToCartRequest is the body of POST /carts/add. The product fields are
// a snapshot of the catalog entry at the time of the add.
type AddToCartRequest struct {
	UserID    string           `json:"userId"`
	ProductID models.ProductID `json:"productId" validate:"required,productid"`
	Name      string           `json:"name" validate:"max=200"`
	Price     float64          `json:"price" validate:"gte=0"`
	Image     string           `json:"image" validate:"max=2048"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=1,lte=100000"`
}

// UpdateCartRequest is the body of PUT /carts/update. Quantity is required
// and zero or less removes the line. Both cart bodies cap quantity at
// models.MaxLineQuantity; the configured per-line limit is applied by the
// cart service.
type UpdateCartRequest struct {
	UserID    string           `json:"userId"`
	ProductID models.ProductID `json:"productId" validate:"required,productid"`
	Quantity  *int             `json:"quantity" validate:"required,lte=100000"`
}

// ProductRequest carries a product reference for cart removal and the
// favorites operations.
type ProductRequest struct {
	UserID    string           `json:"userId"`
	ProductID models.ProductID `json:"productId"`
}

// UserRequest is the body of POST /carts/clear.
type UserRequest struct {
	UserID string `json:"userId"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CheckoutRequest is the body of POST /orders.
type CheckoutRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required,max=50"`
}

// UpdateOrderStatusRequest is the body of PATCH /admin/orders/{orderId}/status.
type UpdateOrderStatusRequest struct {
	Status        models.OrderStatus   `json:"status" validate:"omitempty,orderstatus"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus" validate:"omitempty,paymentstatus"`
}

// ComplaintRequest is the body of POST /complaints.
type ComplaintRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

// SetRoleRequest is the body of PUT /admin/users/{userId}/role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// errBadBody is returned by decodeJSON for unreadable JSON.
var errBadBody = errors.New("request body must be valid JSON")

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errBadBody
	}
	return nil
}

// decodeBody decodes the request body into dst, writing a 400 on failure.
// It reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		badRequest(w, r, err.Error())
		return false
	}
	return true
}

// validBody runs struct validation on dst, writing a 400 on failure.
func validBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if verr := validation.ValidateStruct(dst); verr != nil {
		writeError(w, r, verr)
		return false
	}
	return true
}

// decodeAndValidate is decodeBody followed by validBody.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst) && validBody(w, r, dst)
}
