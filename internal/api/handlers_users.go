// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/usalamaguard/server/internal/models"
)

// GetProfile handles GET /users/{id}/profile. The password hash never
// serializes.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	respondSuccess(w, http.StatusOK, account, start)
}

// UpdateProfile handles PATCH /users/{id}/profile. Absent fields keep
// their current values.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	var req models.ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), accountID, &req)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	respondSuccess(w, http.StatusOK, account, start)
}

// GetCameraLocation handles GET /users/{id}/camera-location.
func (h *Handlers) GetCameraLocation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	location, err := h.accounts.GetCameraLocation(r.Context(), accountID)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	respondSuccess(w, http.StatusOK, &models.CameraLocationResponse{CameraLocation: location}, start)
}

// UpdateCameraLocation handles PATCH /users/{id}/camera-location.
func (h *Handlers) UpdateCameraLocation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	accountID := chi.URLParam(r, "id")

	var req models.CameraLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	if err := h.accounts.UpdateCameraLocation(r.Context(), accountID, req.CameraLocation); err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	respondSuccess(w, http.StatusOK, &models.CameraLocationResponse{CameraLocation: req.CameraLocation}, start)
}
