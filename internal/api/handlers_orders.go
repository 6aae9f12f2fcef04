// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/samay/internal/orders"
)

// Checkout turns the caller's cart into a pending order and clears the cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := tokenUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req CheckoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.Checkout(r.Context(), id.UserID, orders.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "Order placed successfully", order)
}

// MyOrders lists the caller's orders, newest first.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	id, err := tokenUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.orders.ListForUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, list)
}

// GetOrder returns one order. Only its owner or an admin may read it.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := tokenUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderId"), id.UserID, id.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", order)
}
