// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/usalamaguard/server/internal/logging"
)

// Subscriber receives event notifications for the WebSocket bridge.
type Subscriber struct {
	subscriber message.Subscriber
}

// NewSubscriber connects a Watermill NATS subscriber to url.
func NewSubscriber(url string, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("broker subscriber reconnected")
		}),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Unmarshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true, // core NATS: live delivery only, no backlog
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{subscriber: sub}, nil
}

// Events subscribes to every event notification topic. The returned
// channel closes when ctx is cancelled.
func (s *Subscriber) Events(ctx context.Context) (<-chan *message.Message, error) {
	msgs, err := s.subscriber.Subscribe(ctx, TopicWildcard())
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicWildcard(), err)
	}
	return msgs, nil
}

// Close shuts the subscriber down.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
