// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/samay/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	StoreConnected bool    `json:"storeConnected"`
	Uptime         float64 `json:"uptime"`
}

// Health reports liveness and store connectivity. A failed store ping
// returns 503 with status "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	connected := true
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check store ping failed")
			connected = false
		}
	}

	health := HealthStatus{
		Status:         "healthy",
		Version:        h.version,
		StoreConnected: connected,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if !connected {
		health.Status = "degraded"
		writeJSON(w, r, http.StatusServiceUnavailable, &Envelope{
			Success: false,
			Message: "Store unavailable",
			Data:    health,
			Meta:    newMeta(r),
		})
		return
	}
	respond(w, r, http.StatusOK, "", health)
}
