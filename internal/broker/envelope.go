// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package broker

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/usalamaguard/server/internal/models"
)

// Notification kinds carried in envelopes.
const (
	KindEventCreated = "event_created"
	KindEventUpdated = "event_updated"
)

// Topic layout: events.created.<accountID> / events.updated.<accountID>.
// Per-account topics keep NATS-level fan-out cheap; the hub still routes
// by the envelope's account ID so it never parses topic strings.
const topicWildcard = "events.>"

// TopicEventCreated returns the publish topic for new events.
func TopicEventCreated(accountID string) string {
	return fmt.Sprintf("events.created.%s", accountID)
}

// TopicEventUpdated returns the publish topic for status changes.
func TopicEventUpdated(accountID string) string {
	return fmt.Sprintf("events.updated.%s", accountID)
}

// TopicWildcard returns the subscription pattern covering all event
// notifications.
func TopicWildcard() string {
	return topicWildcard
}

// Envelope is the broker payload: the notification kind, the owning
// account, and the full event record.
type Envelope struct {
	Kind      string        `json:"kind"`
	AccountID string        `json:"accountId"`
	Event     *models.Event `json:"event"`
}

// Marshal serializes the envelope for the wire.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope decodes a broker payload.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Kind == "" || env.AccountID == "" || env.Event == nil {
		return nil, fmt.Errorf("incomplete envelope: kind=%q accountId=%q", env.Kind, env.AccountID)
	}
	return &env, nil
}
