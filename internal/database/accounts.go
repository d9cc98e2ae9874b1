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

// InsertAccount persists a new account. Returns ErrDuplicateEmail when
// the email is already registered.
func (db *DB) InsertAccount(ctx context.Context, acct *models.Account) error {
	conn, err := db.Handle()
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = conn.ExecContext(ctx,
		`INSERT INTO accounts
			(id, email, password_hash, notification_email, display_name, camera_location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Email, acct.PasswordHash, acct.NotificationEmail,
		acct.DisplayName, acct.CameraLocation, acct.CreatedAt)
	metrics.RecordDBQuery("insert", "accounts", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount fetches an account by ID. Returns ErrNotFound when absent.
func (db *DB) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return db.getAccount(ctx, `WHERE id = ?`, id)
}

// GetAccountByEmail fetches an account by login email.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return db.getAccount(ctx, `WHERE email = ?`, email)
}

func (db *DB) getAccount(ctx context.Context, where string, arg interface{}) (*models.Account, error) {
	conn, err := db.Handle()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	row := conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, notification_email, display_name, camera_location, created_at
		 FROM accounts `+where, arg)

	var acct models.Account
	var notificationEmail, displayName, cameraLocation sql.NullString
	err = row.Scan(&acct.ID, &acct.Email, &acct.PasswordHash,
		&notificationEmail, &displayName, &cameraLocation, &acct.CreatedAt)
	metrics.RecordDBQuery("select", "accounts", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		db.noteOperationError(err)
		return nil, fmt.Errorf("get account: %w", err)
	}

	acct.NotificationEmail = notificationEmail.String
	acct.DisplayName = displayName.String
	acct.CameraLocation = cameraLocation.String
	return &acct, nil
}

// UpdateCameraLocation sets the camera location label for an account.
// Returns ErrNotFound when the account does not exist.
func (db *DB) UpdateCameraLocation(ctx context.Context, id, location string) error {
	conn, err := db.Handle()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx,
		`UPDATE accounts SET camera_location = ? WHERE id = ?`, location, id)
	metrics.RecordDBQuery("update", "accounts", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return fmt.Errorf("update camera location: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update camera location: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateNotificationEmail sets the alert delivery address for an account.
func (db *DB) UpdateNotificationEmail(ctx context.Context, id, email string) error {
	conn, err := db.Handle()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx,
		`UPDATE accounts SET notification_email = ? WHERE id = ?`, email, id)
	metrics.RecordDBQuery("update", "accounts", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return fmt.Errorf("update notification email: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notification email: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDisplayName sets the display name for an account.
func (db *DB) UpdateDisplayName(ctx context.Context, id, name string) error {
	conn, err := db.Handle()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx,
		`UPDATE accounts SET display_name = ? WHERE id = ?`, name, id)
	metrics.RecordDBQuery("update", "accounts", time.Since(start), err)
	if err != nil {
		db.noteOperationError(err)
		return fmt.Errorf("update display name: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
