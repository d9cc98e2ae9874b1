// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint returns.
//
// Status is "success" or "error". Error is populated only on failure.
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_FOUND", "message": "event not found"},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload.
//
// Codes: VALIDATION_ERROR, AUTHENTICATION_ERROR, NOT_FOUND, CONFLICT,
// STORE_ERROR, SERVICE_UNAVAILABLE, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
