// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/samay/internal/logging"
)

// Envelope is the wrapper of every API response. Message and Data follow
// the storefront client contract; Error and Meta carry machine-readable
// failure details and tracing.
type Envelope struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Data       any       `json:"data,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
	Error      *APIError `json:"error,omitempty"`
	Meta       *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details any `json:"details,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Count     *int      `json:"count,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

func newMeta(r *http.Request) *APIMeta {
	return &APIMeta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	writeJSON(w, r, status, &Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(r),
	})
}

// respondList writes a success envelope for a list and reports its length
// in meta.count.
func respondList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	n := len(items)
	meta := newMeta(r)
	meta.Count = &n
	writeJSON(w, r, http.StatusOK, &Envelope{Success: true, Data: items, Meta: meta})
}

// respondFavorite writes the favorites state envelope used by toggle and
// check.
func respondFavorite(w http.ResponseWriter, r *http.Request, status int, message string, isFavorite bool, data any) {
	writeJSON(w, r, status, &Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		IsFavorite: &isFavorite,
		Meta:       newMeta(r),
	})
}

// respondError writes a failure envelope. message is repeated at the top
// level for clients that only read {success, message}.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, r, status, &Envelope{
		Success: false,
		Message: message,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    newMeta(r),
	})
}

// writeJSON writes JSON response with proper headers.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body *Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}
