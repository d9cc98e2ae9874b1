// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package store implements the event store and account directory on top
// of the persistence gateway. It owns input validation, status
// transition rules, and the error taxonomy the HTTP layer maps to
// status codes.
//
// The store never retries: a failed operation surfaces immediately and
// retry policy belongs to the caller. While the gateway is disconnected
// every operation fails fast with ErrUnavailable rather than queueing.
package store

import (
	"errors"
	"fmt"

	"github.com/usalamaguard/server/internal/database"
)

var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("store: validation failed")

	// ErrNotFound marks a reference to a nonexistent record.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict marks a uniqueness violation (duplicate email).
	ErrConflict = errors.New("store: conflict")

	// ErrUnavailable marks operations attempted while the persistence
	// gateway is disconnected.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrInvalidCredentials marks a failed login attempt.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// mapDBError translates gateway errors into the store taxonomy.
func mapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotConnected):
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrDuplicateEmail):
		return fmt.Errorf("%w: email already registered", ErrConflict)
	default:
		return err
	}
}
