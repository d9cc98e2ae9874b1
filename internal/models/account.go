// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package models

import (
	"time"
)

// Account is a registered camera owner. PasswordHash is never serialized.
type Account struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	NotificationEmail string    `json:"notificationEmail,omitempty"`
	DisplayName       string    `json:"displayName,omitempty"`
	CameraLocation    string    `json:"cameraLocation,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SignupRequest is the POST /auth/signup payload. NotificationEmail
// defaults to Email when omitted.
type SignupRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	NotificationEmail string `json:"notificationEmail,omitempty" validate:"omitempty,email"`
	DisplayName       string `json:"displayName,omitempty" validate:"omitempty,max=100"`
}

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login. The token is a signed
// JWT the client may present on later requests.
type LoginResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ProfileUpdateRequest is the PATCH /users/{id}/profile payload. Nil
// fields are left unchanged.
type ProfileUpdateRequest struct {
	NotificationEmail *string `json:"notificationEmail,omitempty" validate:"omitempty,email"`
	DisplayName       *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
}

// CameraLocationRequest is the PATCH /users/{id}/camera-location payload.
type CameraLocationRequest struct {
	CameraLocation string `json:"cameraLocation" validate:"required,max=200"`
}

// CameraLocationResponse is returned by the camera-location endpoints.
type CameraLocationResponse struct {
	CameraLocation string `json:"cameraLocation"`
}
