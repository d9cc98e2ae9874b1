// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package api implements the HTTP surface: event ingestion and listing,
// account signup and login, camera-location management, the WebSocket
// upgrade endpoint, and health/readiness probes.
package api

import (
	"context"

	"github.com/usalamaguard/server/internal/auth"
	"github.com/usalamaguard/server/internal/models"
	"github.com/usalamaguard/server/internal/websocket"
)

// EventStore persists and queries camera events.
type EventStore interface {
	CreateEvent(ctx context.Context, req *models.CreateEventRequest, idempotencyKey string) (*models.Event, error)
	ListEvents(ctx context.Context, accountID string) ([]models.Event, error)
	UpdateStatus(ctx context.Context, eventID string, status models.EventStatus) (*models.Event, error)
	Ready() bool
}

// AccountDirectory manages registered accounts.
type AccountDirectory interface {
	CreateAccount(ctx context.Context, req *models.SignupRequest) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetCameraLocation(ctx context.Context, id string) (string, error)
	UpdateCameraLocation(ctx context.Context, id, location string) error
	UpdateProfile(ctx context.Context, id string, req *models.ProfileUpdateRequest) (*models.Account, error)
}

// EventPublisher announces persisted events to the broadcast layer.
// Publishing is best effort: a failure never fails the HTTP request.
type EventPublisher interface {
	PublishEventCreated(ctx context.Context, ev *models.Event) error
	PublishEventUpdated(ctx context.Context, ev *models.Event) error
}

// Handlers holds the dependencies of every HTTP handler.
type Handlers struct {
	events    EventStore
	accounts  AccountDirectory
	publisher EventPublisher
	jwt       *auth.JWTManager
	hub       *websocket.Hub

	allowedOrigins []string
}

// NewHandlers wires the HTTP layer. publisher and hub may be nil, which
// disables realtime notification (ingestion still persists).
func NewHandlers(events EventStore, accounts AccountDirectory, publisher EventPublisher, jwt *auth.JWTManager, hub *websocket.Hub, allowedOrigins []string) *Handlers {
	return &Handlers{
		events:         events,
		accounts:       accounts,
		publisher:      publisher,
		jwt:            jwt,
		hub:            hub,
		allowedOrigins: allowedOrigins,
	}
}
