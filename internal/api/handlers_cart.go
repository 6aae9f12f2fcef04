// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/samay/internal/cart"
)

// GetCart returns the user's cart, creating an empty one on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, err := h.actingUser(r, chi.URLParam(r, "userId"), cart.ErrMissingUser)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.carts.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", c)
}

// AddToCart adds a product snapshot to the cart or increments its line.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	uid, err := h.actingUser(r, req.UserID, cart.ErrMissingUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !validBody(w, r, &req) {
		return
	}

	in := cart.AddLineInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}

	res, err := h.carts.AddLine(r.Context(), uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Item added to cart"
	if res.Merged {
		msg = "Cart item quantity updated"
	}
	respond(w, r, http.StatusOK, msg, res.Cart)
}

// UpdateCart sets a line's quantity. Zero or less removes the line.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	uid, err := h.actingUser(r, req.UserID, errRequiredUpdate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" || req.Quantity == nil {
		writeError(w, r, errRequiredUpdate)
		return
	}
	if !validBody(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), uid, req.ProductID, *req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Cart updated", c)
}

// RemoveFromCart drops a line. Removing an absent line succeeds.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	uid, err := h.actingUser(r, req.UserID, errRequiredIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, errRequiredIDs)
		return
	}

	c, err := h.carts.RemoveLine(r.Context(), uid, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Item removed from cart", c)
}

// ClearCart empties the cart and keeps it.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	uid, err := h.actingUser(r, req.UserID, cart.ErrMissingUser)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.carts.Clear(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Cart cleared successfully", c)
}

// DeleteCart removes the cart entirely.
func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	uid, err := h.actingUser(r, chi.URLParam(r, "userId"), cart.ErrMissingUser)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.carts.Delete(r.Context(), uid); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Cart deleted successfully", nil)
}
