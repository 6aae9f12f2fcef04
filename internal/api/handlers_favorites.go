// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/samay/internal/models"
)

func (h *Handler) favoriteRequest(w http.ResponseWriter, r *http.Request) (string, models.ProductID, bool) {
	var req ProductRequest
	if !decodeBody(w, r, &req) {
		return "", "", false
	}
	uid, err := h.actingUser(r, req.UserID, errRequiredIDs)
	if err != nil {
		writeError(w, r, err)
		return "", "", false
	}
	if req.ProductID == "" {
		writeError(w, r, errRequiredIDs)
		return "", "", false
	}
	return uid, req.ProductID, true
}

// ToggleFavorite flips the favorite state of a product and reports the
// resulting state.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	uid, pid, ok := h.favoriteRequest(w, r)
	if !ok {
		return
	}

	res, err := h.favorites.Toggle(r.Context(), uid, pid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.IsFavorite {
		respondFavorite(w, r, http.StatusOK, "Favorite added", true, res.Favorite)
		return
	}
	respondFavorite(w, r, http.StatusOK, "Favorite removed", false, nil)
}

// AddFavorite makes a product a favorite. Adding an existing favorite
// returns the stored record.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	uid, pid, ok := h.favoriteRequest(w, r)
	if !ok {
		return
	}

	res, err := h.favorites.Add(r.Context(), uid, pid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !res.Created {
		respondFavorite(w, r, http.StatusOK, "Product already in favorites", true, res.Favorite)
		return
	}
	respondFavorite(w, r, http.StatusCreated, "Favorite added", true, res.Favorite)
}

// RemoveFavorite deletes a favorite. 404 if it does not exist.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	uid, pid, ok := h.favoriteRequest(w, r)
	if !ok {
		return
	}

	if err := h.favorites.Remove(r.Context(), uid, pid); err != nil {
		writeError(w, r, err)
		return
	}
	respondFavorite(w, r, http.StatusOK, "Favorite removed successfully", false, nil)
}

// ListFavorites returns the user's favorites, newest first.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	uid, err := h.actingUser(r, chi.URLParam(r, "userId"), errRequiredIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	favs, err := h.favorites.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, favs)
}

// CheckFavorite reports whether a product is a favorite of the user.
func (h *Handler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	uid, err := h.actingUser(r, chi.URLParam(r, "userId"), errRequiredIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok, err := h.favorites.IsFavorite(r.Context(), uid, models.ProductID(chi.URLParam(r, "productId")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondFavorite(w, r, http.StatusOK, "", ok, nil)
}
