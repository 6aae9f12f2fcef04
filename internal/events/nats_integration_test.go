// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

//go:build integration

package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/testinfra"
)

func TestNATSBus_RoundTrip(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	nc, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, nc)

	bus, err := events.NewBus(config.EventsConfig{
		Enabled:       true,
		Transport:     config.TransportNATS,
		NATSURL:       nc.URL,
		AutoProvision: true,
	})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer func() { _ = bus.Close() }()

	if got := bus.Transport(); got != config.TransportNATS {
		t.Fatalf("Transport() = %q, want nats", got)
	}

	ch, err := bus.Subscribe(ctx, events.TopicCartUpdated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// The JetStream consumer delivers new messages only, so keep
	// publishing until the subscription is live.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	bus.Publish(ctx, events.TopicCartUpdated, "u1", map[string]any{"productId": "7"})

	for {
		select {
		case msg := <-ch:
			msg.Ack()
			evt, err := events.Decode(msg.Payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if evt.Topic != events.TopicCartUpdated || evt.UserID != "u1" {
				t.Errorf("event = %+v", evt)
			}
			if got := msg.Metadata.Get("user_id"); got != "u1" {
				t.Errorf("user_id metadata = %q", got)
			}
			return
		case <-ticker.C:
			bus.Publish(ctx, events.TopicCartUpdated, "u1", map[string]any{"productId": "7"})
		case <-ctx.Done():
			t.Fatal("no event received from NATS")
		}
	}
}
