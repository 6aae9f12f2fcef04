// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/samay/internal/complaints"
)

// FileComplaint stores a contact-form complaint. No login is required.
func (h *Handler) FileComplaint(w http.ResponseWriter, r *http.Request) {
	var req ComplaintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.complaints.Create(r.Context(), complaints.Input{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "Complaint submitted successfully", c)
}

// ListComplaints returns every complaint, newest first.
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := h.complaints.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, r, list)
}

// GetComplaint returns one complaint.
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	c, err := h.complaints.Get(r.Context(), chi.URLParam(r, "complaintId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "", c)
}

// DeleteComplaint removes a complaint.
func (h *Handler) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	if err := h.complaints.Delete(r.Context(), chi.URLParam(r, "complaintId")); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "Complaint deleted successfully", nil)
}
