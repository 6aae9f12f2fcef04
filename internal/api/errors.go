// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/samay/internal/accounts"
	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/authz"
	"github.com/tomtom215/samay/internal/cart"
	"github.com/tomtom215/samay/internal/complaints"
	"github.com/tomtom215/samay/internal/favorites"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/orders"
	"github.com/tomtom215/samay/internal/store"
	"github.com/tomtom215/samay/internal/validation"
)

var (
	// errRequiredIDs is reported for a missing user or product.
	errRequiredIDs = errors.New("userId and productId are required")

	// errRequiredUpdate is reported for an incomplete quantity update.
	errRequiredUpdate = errors.New("userId, productId, and quantity are required")
)

// errorMapping is one row of the domain error table.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable is checked in order with errors.Is. An empty message uses
// the error text.
var errorTable = []errorMapping{
	{errRequiredIDs, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{errRequiredUpdate, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{cart.ErrMissingUser, http.StatusBadRequest, ErrCodeBadRequest, "userId is required"},
	{favorites.ErrMissingUser, http.StatusBadRequest, ErrCodeBadRequest, "userId is required"},
	{orders.ErrMissingUser, http.StatusBadRequest, ErrCodeBadRequest, "userId is required"},
	{auth.ErrInvalidUserID, http.StatusBadRequest, ErrCodeValidation, "userId contains invalid characters"},
	{models.ErrEmptyProductID, http.StatusBadRequest, ErrCodeBadRequest, "productId is required"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, ErrCodeValidation, "Quantity must be at least 1"},
	{cart.ErrQuantityTooLarge, http.StatusBadRequest, ErrCodeValidation, "Quantity exceeds the per-line maximum"},
	{complaints.ErrMissingFields, http.StatusBadRequest, ErrCodeBadRequest, "Name, email, subject, and message are required"},
	{cart.ErrInvalidPrice, http.StatusBadRequest, ErrCodeValidation, "Price must not be negative"},
	{accounts.ErrMissingFields, http.StatusBadRequest, ErrCodeValidation, "Name, email and password are required"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, ErrCodeValidation, "Password must be at least 6 characters"},
	{accounts.ErrUserExists, http.StatusBadRequest, ErrCodeBadRequest, "User already exists"},
	{orders.ErrCartEmpty, http.StatusBadRequest, ErrCodeBadRequest, "Cart is empty"},
	{orders.ErrInvalidStatus, http.StatusBadRequest, ErrCodeValidation, ""},

	{cart.ErrCartNotFound, http.StatusNotFound, ErrCodeNotFound, "Cart not found"},
	{cart.ErrLineNotFound, http.StatusNotFound, ErrCodeNotFound, "Item not found in cart"},
	{favorites.ErrNotFavorite, http.StatusNotFound, ErrCodeNotFound, "Favorite not found"},
	{orders.ErrOrderNotFound, http.StatusNotFound, ErrCodeNotFound, "Order not found"},
	{accounts.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound, "User not found"},
	{complaints.ErrComplaintNotFound, http.StatusNotFound, ErrCodeNotFound, "Complaint not found"},

	{accounts.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials"},
	{auth.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required"},
	{auth.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "Cannot act on behalf of another user"},
	{authz.ErrInsufficientRole, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions"},

	{favorites.ErrContended, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Favorite is busy, please retry"},
	{store.ErrConflict, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Resource is busy, please retry"},
	{store.ErrUnavailable, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service temporarily unavailable"},
}

// writeError maps err onto the response envelope. Unknown errors become a
// generic 500 and are logged with the request ID.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		apiErr := ve.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		if m.status >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Request failed on an unavailable dependency")
		}
		respondError(w, r, m.status, m.code, msg, nil)
		return
	}

	logging.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Unhandled request error")
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
}

// badRequest writes a 400 for a malformed body or parameter.
func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message, nil)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
}
