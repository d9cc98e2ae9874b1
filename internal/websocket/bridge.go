// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package websocket

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/usalamaguard/server/internal/broker"
	"github.com/usalamaguard/server/internal/logging"
)

// EventSource yields broker notifications. *broker.Subscriber satisfies
// it; tests feed the bridge from a plain channel.
type EventSource interface {
	Events(ctx context.Context) (<-chan *message.Message, error)
}

// BrokerBridge consumes event notifications from the broker and hands
// them to the hub for per-account fan-out.
type BrokerBridge struct {
	source EventSource
	hub    *Hub
}

// NewBrokerBridge wires a subscriber to a hub.
func NewBrokerBridge(source EventSource, hub *Hub) *BrokerBridge {
	return &BrokerBridge{source: source, hub: hub}
}

// Run processes notifications until ctx is cancelled. Malformed
// payloads are logged and acknowledged; they would never become
// deliverable by redelivery.
func (b *BrokerBridge) Run(ctx context.Context) error {
	msgs, err := b.source.Events(ctx)
	if err != nil {
		return fmt.Errorf("bridge subscribe: %w", err)
	}
	logging.Info().Str("component", "broker-bridge").Msg("event bridge started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			b.handle(msg)
		}
	}
}

func (b *BrokerBridge) handle(msg *message.Message) {
	defer msg.Ack()

	env, err := broker.UnmarshalEnvelope(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("discarding malformed notification")
		return
	}

	switch env.Kind {
	case broker.KindEventCreated:
		b.hub.PublishEventCreated(env.Event)
	case broker.KindEventUpdated:
		b.hub.PublishEventUpdated(env.Event)
	default:
		logging.Warn().Str("kind", env.Kind).Msg("unknown notification kind")
	}
}
