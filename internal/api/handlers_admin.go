// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Admin handlers run behind the role check in the router.

// AdminListOrders returns every order.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, list)
}

// AdminUpdateOrderStatus sets the order and/or payment status.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), req.Status, req.PaymentStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Order status updated", order)
}

// AdminListCarts returns every cart.
func (h *Handler) AdminListCarts(w http.ResponseWriter, r *http.Request) {
	list, err := h.carts.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, list)
}

// AdminListFavorites returns every favorite.
func (h *Handler) AdminListFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := h.favorites.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, list)
}

// AdminSetRole assigns a role to a user.
func (h *Handler) AdminSetRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.accounts.SetRole(r.Context(), chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "User role updated", profile)
}
