// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
)

// Handler processes one decoded event. A non-nil error nacks the message.
type Handler func(ctx context.Context, evt *Event) error

// Consumer fans every topic into a handler. It implements suture.Service.
type Consumer struct {
	bus     *Bus
	topics  []string
	handler Handler
	name    string
}

// NewConsumer subscribes handler to topics.
func NewConsumer(name string, bus *Bus, topics []string, handler Handler) *Consumer {
	return &Consumer{bus: bus, topics: topics, handler: handler, name: name}
}

// NewLogConsumer writes every event to the structured log at info level.
func NewLogConsumer(bus *Bus) *Consumer {
	return NewConsumer("event-log", bus, AllTopics, func(ctx context.Context, evt *Event) error {
		data := []byte(evt.Data)
		if len(data) == 0 {
			data = []byte("null")
		}
		logging.Ctx(ctx).Info().
			Str("topic", evt.Topic).
			Str("event_id", evt.EventID).
			Str("user_id", evt.UserID).
			RawJSON("data", data).
			Msg("Domain event")
		return nil
	})
}

// Serve consumes until ctx is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streams := make([]<-chan *message.Message, 0, len(c.topics))
	for _, topic := range c.topics {
		ch, err := c.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		streams = append(streams, ch)
	}

	var wg sync.WaitGroup
	for i, ch := range streams {
		wg.Add(1)
		go func(topic string, ch <-chan *message.Message) {
			defer wg.Done()
			c.drain(ctx, topic, ch)
		}(c.topics[i], ch)
	}
	wg.Wait()

	return ctx.Err()
}

func (c *Consumer) drain(ctx context.Context, topic string, ch <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.process(ctx, topic, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, topic string, msg *message.Message) {
	evt, err := Decode(msg.Payload)
	if err != nil {
		// Undecodable payloads would be redelivered forever.
		logging.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Dropping malformed event")
		msg.Ack()
		return
	}

	if err := c.handler(logging.ContextWithRequestID(ctx, evt.RequestID), evt); err != nil {
		logging.Error().Err(err).Str("topic", topic).Str("event_id", evt.EventID).Msg("Event handler failed")
		msg.Nack()
		return
	}
	metrics.EventsConsumed.WithLabelValues(topic).Inc()
	msg.Ack()
}

// String names the service in supervisor logs.
func (c *Consumer) String() string {
	return c.name
}
