// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/samay/internal/accounts"
	"github.com/tomtom215/samay/internal/models"
)

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserProfile `json:"user"`
}

func sessionResponse(s *accounts.Session) SessionResponse {
	return SessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.User}
}

// Register creates an account and returns a signed-in session.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "User registered successfully", sessionResponse(session))
}

// Login verifies credentials and returns a signed-in session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Login successful", sessionResponse(session))
}

// Me returns the profile of the token's user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := tokenUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.accounts.Me(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", profile)
}
