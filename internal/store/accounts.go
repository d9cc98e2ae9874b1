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
	"github.com/usalamaguard/server/internal/auth"
	"github.com/usalamaguard/server/internal/database"
	"github.com/usalamaguard/server/internal/models"
)

// AccountDirectory manages account records and credential checks.
type AccountDirectory struct {
	db         *database.DB
	bcryptCost int
	opTimeout  time.Duration
}

// NewAccountDirectory creates an account directory. A bcryptCost of 0
// falls back to auth.DefaultBcryptCost.
func NewAccountDirectory(db *database.DB, bcryptCost int, opTimeout time.Duration) *AccountDirectory {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &AccountDirectory{db: db, bcryptCost: bcryptCost, opTimeout: opTimeout}
}

// CreateAccount registers a new account. NotificationEmail defaults to
// the login email. Returns ErrConflict when the email is taken.
func (d *AccountDirectory) CreateAccount(ctx context.Context, req *models.SignupRequest) (*models.Account, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	hash, err := auth.HashPassword(req.Password, d.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	notificationEmail := req.NotificationEmail
	if notificationEmail == "" {
		notificationEmail = req.Email
	}

	acct := &models.Account{
		ID:                uuid.New().String(),
		Email:             req.Email,
		PasswordHash:      hash,
		NotificationEmail: notificationEmail,
		DisplayName:       req.DisplayName,
		CreatedAt:         time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	if err := d.db.InsertAccount(ctx, acct); err != nil {
		return nil, mapDBError(err)
	}
	return acct, nil
}

// Authenticate verifies login credentials. Unknown emails and wrong
// passwords both return ErrInvalidCredentials so callers cannot probe
// for registered addresses.
func (d *AccountDirectory) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	acct, err := d.db.GetAccountByEmail(ctx, email)
	if err != nil {
		mapped := mapDBError(err)
		if mapped == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, mapped
	}

	if !auth.CheckPassword(acct.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// GetAccount fetches an account by ID.
func (d *AccountDirectory) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	acct, err := d.db.GetAccount(ctx, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return acct, nil
}

// GetCameraLocation returns the camera location label for an account.
func (d *AccountDirectory) GetCameraLocation(ctx context.Context, id string) (string, error) {
	acct, err := d.GetAccount(ctx, id)
	if err != nil {
		return "", err
	}
	return acct.CameraLocation, nil
}

// UpdateCameraLocation sets the camera location label for an account.
func (d *AccountDirectory) UpdateCameraLocation(ctx context.Context, id, location string) error {
	if location == "" {
		return fmt.Errorf("%w: cameraLocation is required", ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	if err := d.db.UpdateCameraLocation(ctx, id, location); err != nil {
		return mapDBError(err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of req and returns the
// refreshed account. An empty update is a validation error.
func (d *AccountDirectory) UpdateProfile(ctx context.Context, id string, req *models.ProfileUpdateRequest) (*models.Account, error) {
	if req.NotificationEmail == nil && req.DisplayName == nil {
		return nil, fmt.Errorf("%w: no profile fields to update", ErrValidation)
	}
	if req.NotificationEmail != nil && *req.NotificationEmail == "" {
		return nil, fmt.Errorf("%w: notificationEmail cannot be empty", ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	if req.NotificationEmail != nil {
		if err := d.db.UpdateNotificationEmail(ctx, id, *req.NotificationEmail); err != nil {
			return nil, mapDBError(err)
		}
	}
	if req.DisplayName != nil {
		if err := d.db.UpdateDisplayName(ctx, id, *req.DisplayName); err != nil {
			return nil, mapDBError(err)
		}
	}

	acct, err := d.db.GetAccount(ctx, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return acct, nil
}
