// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/usalamaguard/server/internal/database"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/models"
)

// EventStore persists and queries detection events.
//
// Persistence and notification are deliberately separate: CreateEvent
// and UpdateStatus only write; the HTTP layer publishes to the broadcast
// router after a successful write, so a failed notification can never
// roll back a persisted event.
type EventStore struct {
	db        *database.DB
	idem      *IdempotencyStore
	opTimeout time.Duration
}

// NewEventStore creates an event store. idem may be nil, disabling
// duplicate suppression for retried creates.
func NewEventStore(db *database.DB, idem *IdempotencyStore, opTimeout time.Duration) *EventStore {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &EventStore{db: db, idem: idem, opTimeout: opTimeout}
}

// CreateEvent validates and persists a new event, returning the stored
// record including its assigned ID and sequence.
//
// idemKey is the optional client-supplied idempotency key. When a key
// was already recorded the original event is returned instead of
// inserting a duplicate. Without a key, retried creates duplicate; this
// matches the camera agents' at-least-once posting behavior.
func (s *EventStore) CreateEvent(ctx context.Context, req *models.CreateEventRequest, idemKey string) (*models.Event, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	status := models.StatusActive
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, req.Status)
		}
		status = req.Status
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if idemKey != "" && s.idem != nil {
		if eventID, seen, err := s.idem.Lookup(idemKey); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("idempotency lookup failed, proceeding with insert")
		} else if seen {
			existing, err := s.db.GetEvent(ctx, eventID)
			if err == nil {
				logging.Ctx(ctx).Debug().Str("event_id", eventID).Msg("duplicate create suppressed")
				return existing, nil
			}
			// Recorded key pointing at a missing event; fall through and insert.
		}
	}

	now := time.Now().UTC()
	ts := now
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	ev := &models.Event{
		ID:        uuid.New().String(),
		AccountID: req.AccountID,
		Timestamp: ts,
		Image:     req.Image,
		Type:      req.Type,
		Location:  req.Location,
		Severity:  req.Severity,
		Status:    status,
		CreatedAt: now,
	}

	if err := s.db.InsertEvent(ctx, ev); err != nil {
		return nil, mapDBError(err)
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.Record(idemKey, ev.ID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("idempotency record failed")
		}
	}
	return ev, nil
}

// ListEvents returns the account's events newest first, ties in
// insertion order. Returns ErrValidation for an empty account ID.
func (s *EventStore) ListEvents(ctx context.Context, accountID string) ([]models.Event, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	events, err := s.db.ListEventsByAccount(ctx, accountID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return events, nil
}

// UpdateStatus transitions an event to the given status and returns the
// updated record. Statuses outside the enum are rejected before any
// store access, and unknown events return ErrNotFound with nothing
// written.
func (s *EventStore) UpdateStatus(ctx context.Context, eventID string, status models.EventStatus) (*models.Event, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	ev, err := s.db.UpdateEventStatus(ctx, eventID, status)
	if err != nil {
		return nil, mapDBError(err)
	}
	return ev, nil
}

// Ready reports whether the backing gateway can serve reads.
func (s *EventStore) Ready() bool {
	return s.db.Ready()
}
