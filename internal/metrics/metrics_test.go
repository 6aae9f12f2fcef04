// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("badger", "get_cart", "other"))

	RecordStoreOperation("badger", "get_cart", 2*time.Millisecond, "")
	RecordStoreOperation("badger", "get_cart", 3*time.Millisecond, "other")

	after := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("badger", "get_cart", "other"))
	if after-before != 1 {
		t.Errorf("store error counter delta = %v, want 1", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/carts/add", "200"))
	RecordAPIRequest("POST", "/carts/add", "200", 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/carts/add", "200"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordCartMutation(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "ok"},
		{"failure", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CartMutations.WithLabelValues("add", tt.result)
			before := testutil.ToFloat64(c)
			RecordCartMutation("add", tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordFavoriteToggle(t *testing.T) {
	present := FavoriteToggles.WithLabelValues("present")
	absent := FavoriteToggles.WithLabelValues("absent")
	p0, a0 := testutil.ToFloat64(present), testutil.ToFloat64(absent)

	RecordFavoriteToggle(true)
	RecordFavoriteToggle(false)
	RecordFavoriteToggle(false)

	if got := testutil.ToFloat64(present) - p0; got != 1 {
		t.Errorf("present delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(absent) - a0; got != 2 {
		t.Errorf("absent delta = %v, want 2", got)
	}
}

func TestRecordOrderPlaced(t *testing.T) {
	before := testutil.ToFloat64(OrdersPlaced)
	RecordOrderPlaced(1234.5)
	if got := testutil.ToFloat64(OrdersPlaced) - before; got != 1 {
		t.Errorf("orders delta = %v, want 1", got)
	}
}
