// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/models"
	"github.com/usalamaguard/server/internal/store"
	"github.com/usalamaguard/server/internal/validation"
)

// Error codes returned in the APIError envelope.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeAuthentication = "AUTHENTICATION_ERROR"
	codeNotFound       = "NOT_FOUND"
	codeConflict       = "CONFLICT"
	codeStore          = "STORE_ERROR"
	codeUnavailable    = "SERVICE_UNAVAILABLE"
	codeBadRequest     = "BAD_REQUEST"
)

// sanitizeLogValue strips control characters so attacker-supplied
// strings cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("api error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a 400 carrying per-field details.
func respondValidationError(w http.ResponseWriter, apiErr *validation.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

// decodeJSON parses the request body into dst. A malformed body is a
// client error, reported with the validation code.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "request body is not valid JSON", err)
		return false
	}
	return true
}

// validateRequest validates a struct and writes the 400 response itself
// when validation fails.
func validateRequest(w http.ResponseWriter, v interface{}) bool {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return true
	}
	respondValidationError(w, validationErr.ToAPIError())
	return false
}

// respondStoreError maps the store error taxonomy to HTTP status codes.
// unavailableStatus parameterizes the disconnected-gateway case: reads
// report 503, writes report 500.
func respondStoreError(w http.ResponseWriter, err error, unavailableStatus int) {
	switch {
	case errors.Is(err, store.ErrValidation):
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, "record not found", nil)
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, codeConflict, "email already registered", nil)
	case errors.Is(err, store.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, codeAuthentication, "invalid email or password", nil)
	case errors.Is(err, store.ErrUnavailable):
		code := codeUnavailable
		if unavailableStatus == http.StatusInternalServerError {
			code = codeStore
		}
		respondError(w, unavailableStatus, code, "event store is unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, codeStore, "internal error", err)
	}
}
