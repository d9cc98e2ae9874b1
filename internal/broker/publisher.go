// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/metrics"
	"github.com/usalamaguard/server/internal/models"
)

// Publisher sends event notifications into the broadcast router.
//
// Publishes happen only after the store write succeeded, and a publish
// failure never fails the originating request: the event is durable, the
// notification is best effort to live sessions. A circuit breaker keeps
// a dead broker from stalling the request path.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects a Watermill NATS publisher to url.
func NewPublisher(url string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("broker publisher disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("broker publisher reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true, // core NATS: at-most-once, no replay
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "broker-publish",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("publish circuit breaker state change")
		},
	})

	return &Publisher{publisher: pub, circuitBreaker: cb}, nil
}

// PublishEventCreated announces a newly persisted event to the owning
// account's live sessions.
func (p *Publisher) PublishEventCreated(ctx context.Context, ev *models.Event) error {
	return p.publishEnvelope(ctx, KindEventCreated, TopicEventCreated(ev.AccountID), ev)
}

// PublishEventUpdated announces a status change to the owning account's
// live sessions.
func (p *Publisher) PublishEventUpdated(ctx context.Context, ev *models.Event) error {
	return p.publishEnvelope(ctx, KindEventUpdated, TopicEventUpdated(ev.AccountID), ev)
}

func (p *Publisher) publishEnvelope(ctx context.Context, kind, topic string, ev *models.Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	env := &Envelope{Kind: kind, AccountID: ev.AccountID, Event: ev}
	data, err := env.Marshal()
	if err != nil {
		metrics.RecordPublish(kind, err)
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("kind", kind)
	msg.Metadata.Set("account_id", ev.AccountID)
	msg.SetContext(ctx)

	_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(topic, msg)
	})
	metrics.RecordPublish(kind, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close shuts the publisher down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
