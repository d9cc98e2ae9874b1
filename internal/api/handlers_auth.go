// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"
	"time"

	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/models"
)

// Signup handles POST /auth/signup. Duplicate emails are a conflict,
// not an error to retry.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), &req)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	logging.Info().
		Str("account_id", account.ID).
		Msg("account created")
	respondSuccess(w, http.StatusCreated, account, start)
}

// Login handles POST /auth/login. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	token, err := h.jwt.GenerateToken(account.ID, account.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeStore, "failed to issue token", err)
		return
	}

	respondSuccess(w, http.StatusOK, &models.LoginResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       token,
		ExpiresAt:   time.Now().Add(h.jwt.Timeout()),
	}, start)
}
