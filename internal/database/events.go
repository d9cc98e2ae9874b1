// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/usalamaguard/server/internal/metrics"
	"github.com/usalamaguard/server/internal/models"
)

const eventColumns = `id, account_id, seq, ts, image, type, location, severity, status, created_at`

// InsertEvent persists a new event, assigning its insertion sequence.
// The sequence is written back into ev.Seq.
func (db *DB) InsertEvent(ctx context.Context, ev *models.Event) error {
	conn, err := db.Handle()
	if err != nil {
		return err
	}

	start := time.Now()
	row := conn.QueryRowContext(ctx,
		`INSERT INTO events (id, account_id, seq, ts, image, type, location, severity, status, created_at)
		 VALUES (?, ?, nextval('events_seq'), ?, ?, ?, ?, ?, ?, ?)
		 RETURNING seq`,
		ev.ID, ev.AccountID, ev.Timestamp, ev.Image, ev.Type,
		ev.Location, ev.Severity, string(ev.Status), ev.CreatedAt)
	err = row.Scan(&ev.Seq)
	metrics.RecordDBQuery("insert", "events", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent fetches one event by ID. Returns ErrNotFound when absent.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	conn, err := db.Handle()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row := conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		db.noteOperationError(err)
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEventsByAccount returns the account's events newest first.
// Ties on timestamp keep insertion order via the sequence column.
func (db *DB) ListEventsByAccount(ctx context.Context, accountID string) ([]models.Event, error) {
	conn, err := db.Handle()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE account_id = ?
		 ORDER BY ts DESC, seq ASC`, accountID)
	if err != nil {
		metrics.RecordDBQuery("select", "events", time.Since(start), err)
		db.noteOperationError(err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer closeQuietly(rows)

	events := make([]models.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			metrics.RecordDBQuery("select", "events", time.Since(start), err)
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateEventStatus transitions an event's status and returns the updated
// row. Returns ErrNotFound when the event does not exist; in that case
// nothing is written.
func (db *DB) UpdateEventStatus(ctx context.Context, id string, status models.EventStatus) (*models.Event, error) {
	conn, err := db.Handle()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx,
		`UPDATE events SET status = ? WHERE id = ?`, string(status), id)
	metrics.RecordDBQuery("update", "events", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return nil, fmt.Errorf("update event status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update event status: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return db.GetEvent(ctx, id)
}

// scanner abstracts *sql.Row and *sql.Rows for scanEvent.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(s scanner) (*models.Event, error) {
	var ev models.Event
	var image, location, severity sql.NullString
	var status string
	if err := s.Scan(&ev.ID, &ev.AccountID, &ev.Seq, &ev.Timestamp,
		&image, &ev.Type, &location, &severity, &status, &ev.CreatedAt); err != nil {
		return nil, err
	}
	ev.Image = image.String
	ev.Location = location.String
	ev.Severity = severity.String
	ev.Status = models.EventStatus(status)
	return &ev, nil
}
