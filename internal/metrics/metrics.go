// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package metrics holds the Prometheus collectors for Samay. Collectors are
// registered on the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "samay_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"backend", "operation", "error_type"}, // not_found, duplicate, conflict, unavailable, canceled, other
	)

	StoreConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_store_conflict_retries_total",
			Help: "Transactions retried after losing to a concurrent writer",
		},
		[]string{"backend", "operation"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "samay_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "samay_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Identity Metrics
	IdentityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_identity_resolutions_total",
			Help: "Session identity resolutions by mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: required, optional; outcome: token, anonymous, rejected
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_auth_attempts_total",
			Help: "Register and login attempts",
		},
		[]string{"operation", "result"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_authz_decisions_total",
			Help: "Admin route authorization decisions",
		},
		[]string{"result"}, // allowed, denied, error
	)

	// Cart Metrics
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_cart_mutations_total",
			Help: "Cart mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// Favorites Metrics
	FavoriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_favorite_toggles_total",
			Help: "Favorite toggles by resulting state",
		},
		[]string{"state"}, // present, absent
	)

	FavoriteRaceCompensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_favorite_race_compensations_total",
			Help: "Toggles that lost the insert race and were resolved by the race policy",
		},
		[]string{"policy"},
	)

	// Complaint Metrics
	ComplaintsFiled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samay_complaints_filed_total",
			Help: "Total number of complaints submitted",
		},
	)

	// Order Metrics
	OrdersPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samay_orders_placed_total",
			Help: "Total number of orders placed",
		},
	)

	OrderValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "samay_order_value",
			Help:    "Order totals in store currency",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_events_published_total",
			Help: "Domain events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samay_events_consumed_total",
			Help: "Domain events handled by the event log consumer",
		},
		[]string{"topic"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samay_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordStoreOperation records the latency and, when errorType is not
// empty, the failure of one store call.
func RecordStoreOperation(backend, operation string, duration time.Duration, errorType string) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if errorType != "" {
		StoreOperationErrors.WithLabelValues(backend, operation, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCartMutation counts one cart operation.
func RecordCartMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CartMutations.WithLabelValues(operation, result).Inc()
}

// RecordFavoriteToggle counts a toggle by the state it resolved to.
func RecordFavoriteToggle(present bool) {
	state := "absent"
	if present {
		state = "present"
	}
	FavoriteToggles.WithLabelValues(state).Inc()
}

// RecordOrderPlaced counts a successful checkout.
func RecordOrderPlaced(total float64) {
	OrdersPlaced.Inc()
	OrderValue.Observe(total)
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}
