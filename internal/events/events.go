// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package events publishes domain events (cart changes, favorite toggles,
// placed orders, registrations) over Watermill. The in-process gochannel
// transport is the default; NATS JetStream is used when configured.
//
// Publishing is fire-and-forget from the caller's point of view: a failed
// publish is logged and counted but never fails the HTTP request that
// produced the event.
package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current Event envelope version.
const SchemaVersion = 1

// Topics. They double as JetStream stream names, which may not contain dots.
const (
	TopicCartUpdated     = "samay_cart_updated"
	TopicCartDeleted     = "samay_cart_deleted"
	TopicFavoriteToggled = "samay_favorite_toggled"
	TopicFavoriteAdded   = "samay_favorite_added"
	TopicFavoriteRemoved = "samay_favorite_removed"
	TopicOrderPlaced     = "samay_order_placed"
	TopicOrderStatus     = "samay_order_status"
	TopicUserRegistered  = "samay_user_registered"
	TopicUserRoleChanged = "samay_user_role_changed"
	TopicComplaintFiled  = "samay_complaint_filed"
)

// AllTopics lists every topic the service publishes to.
var AllTopics = []string{
	TopicCartUpdated,
	TopicCartDeleted,
	TopicFavoriteToggled,
	TopicFavoriteAdded,
	TopicFavoriteRemoved,
	TopicOrderPlaced,
	TopicOrderStatus,
	TopicUserRegistered,
	TopicUserRoleChanged,
	TopicComplaintFiled,
}

// Event is the envelope carried in every message payload.
type Event struct {
	SchemaVersion int             `json:"schema_version"`
	EventID       string          `json:"event_id"`
	Topic         string          `json:"topic"`
	UserID        string          `json:"user_id,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope around data.
func NewEvent(topic, userID string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Topic:         topic,
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
		Data:          raw,
	}, nil
}

// Decode parses a message payload.
func Decode(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher is what domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, topic, userID string, data any)
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, any) {}

// OrNop returns p, or Nop when p is nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	return p
}
