// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package models holds the wire and storage types shared across the
// server: accounts, detection events, and the HTTP response envelope.
//
// JSON field names follow the camelCase contract of the existing camera
// agents and web client (userId, notificationEmail, cameraLocation).
package models

import (
	"time"
)

// EventStatus is the lifecycle state of a detection event.
type EventStatus string

const (
	// StatusActive is the initial state of every new event.
	StatusActive EventStatus = "active"

	// StatusResolved marks an event handled by the account owner.
	StatusResolved EventStatus = "resolved"

	// StatusDismissed marks an event judged a false alarm.
	StatusDismissed EventStatus = "dismissed"
)

// Valid reports whether s is a member of the status enum.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Event is a single camera detection.
//
// Seq is the insertion sequence assigned by the store. Listings order by
// Timestamp descending and break ties on Seq ascending, so events sharing
// a timestamp keep their insertion order.
type Event struct {
	ID        string      `json:"id"`
	AccountID string      `json:"userId"`
	Seq       int64       `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
	Image     string      `json:"image,omitempty"`
	Type      string      `json:"type"`
	Location  string      `json:"location,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Status    EventStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CreateEventRequest is the POST /events payload from a camera agent.
// Only the owning account is mandatory; type, location and severity are
// free text so new camera firmware can emit vocabularies the server has
// never seen. Timestamp defaults to the current time and Status to
// active when absent.
type CreateEventRequest struct {
	AccountID string      `json:"userId" validate:"required"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Image     string      `json:"image,omitempty"`
	Type      string      `json:"type,omitempty"`
	Location  string      `json:"location,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Status    EventStatus `json:"status,omitempty" validate:"omitempty,oneof=active resolved dismissed"`
}

// UpdateEventStatusRequest is the PATCH /events/{id} payload.
type UpdateEventStatusRequest struct {
	Status EventStatus `json:"status" validate:"required"`
}
