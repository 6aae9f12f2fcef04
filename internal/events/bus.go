// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
)

// Bus owns a Watermill publisher/subscriber pair.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	transport  string

	mu     sync.RWMutex
	closed bool
}

// NewBus builds the transport named by cfg.Transport.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger().With("component", "events"))

	switch cfg.Transport {
	case config.TransportMemory, "":
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          false,
		}, logger)
		return &Bus{publisher: ch, subscriber: ch, transport: config.TransportMemory}, nil

	case config.TransportNATS:
		return newNATSBus(cfg, logger)

	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}

func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
}

func newNATSBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOptions(logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: cfg.AutoProvision,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: "samay",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOptions(logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:    cfg.AutoProvision,
			DurablePrefix:    "samay",
			SubscribeOptions: []natsgo.SubOpt{natsgo.DeliverNew()},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Bus{publisher: pub, subscriber: sub, transport: config.TransportNATS}, nil
}

// Publish wraps data in an Event and publishes it. Failures are logged.
func (b *Bus) Publish(ctx context.Context, topic, userID string, data any) {
	err := b.publish(ctx, topic, userID, data)
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

func (b *Bus) publish(ctx context.Context, topic, userID string, data any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	evt, err := NewEvent(topic, userID, data)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	evt.RequestID = logging.RequestIDFromContext(ctx)

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := message.NewMessage(evt.EventID, payload)
	msg.Metadata.Set("user_id", userID)
	if evt.RequestID != "" {
		msg.Metadata.Set("request_id", evt.RequestID)
	}
	if b.transport == config.TransportNATS {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}
	return b.publisher.Publish(topic, msg)
}

// Subscribe returns the message stream for topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Transport reports the active transport name.
func (b *Bus) Transport() string {
	return b.transport
}

// Close shuts the publisher and subscriber down.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	pubErr := b.publisher.Close()
	if b.transport == config.TransportMemory {
		// gochannel uses one object for both sides.
		return pubErr
	}
	if err := b.subscriber.Close(); err != nil {
		return err
	}
	return pubErr
}
