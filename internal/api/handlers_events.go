// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/models"
)

// CreateEvent handles POST /events: persist first, then announce to the
// owning account's live sessions. A broken broadcast path never fails
// ingestion.
//
// Camera agents may send an Idempotency-Key header; retries carrying
// the same key return the originally persisted event.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// A missing owner is an identification failure, not a validation
	// one: cameras authenticate by claiming their account ID.
	if req.AccountID == "" {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "userId is required", nil)
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	ev, err := h.events.CreateEvent(r.Context(), &req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		respondStoreError(w, err, http.StatusInternalServerError)
		return
	}

	h.announce(r, ev, false)

	logging.Info().
		Str("event_id", ev.ID).
		Str("account_id", ev.AccountID).
		Str("type", sanitizeLogValue(ev.Type)).
		Msg("event ingested")
	respondSuccess(w, http.StatusCreated, ev, start)
}

// ListEvents handles GET /events?userId=. Results are newest first;
// equal timestamps keep insertion order.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID := r.URL.Query().Get("userId")
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "userId query parameter is required", nil)
		return
	}

	events, err := h.events.ListEvents(r.Context(), accountID)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	respondSuccess(w, http.StatusOK, events, start)
}

// UpdateEventStatus handles PATCH /events/{id}. An invalid status value
// is rejected before the store is touched; successful transitions are
// announced like new events.
func (h *Handlers) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventID := chi.URLParam(r, "id")

	var req models.UpdateEventStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	ev, err := h.events.UpdateStatus(r.Context(), eventID, req.Status)
	if err != nil {
		respondStoreError(w, err, http.StatusServiceUnavailable)
		return
	}

	h.announce(r, ev, true)

	respondSuccess(w, http.StatusOK, ev, start)
}

// announce publishes a persisted event to the broadcast layer. Failures
// are logged and swallowed: live notification is best effort, the event
// is already durable.
func (h *Handlers) announce(r *http.Request, ev *models.Event, updated bool) {
	if h.publisher == nil {
		return
	}

	var err error
	if updated {
		err = h.publisher.PublishEventUpdated(r.Context(), ev)
	} else {
		err = h.publisher.PublishEventCreated(r.Context(), ev)
	}
	if err != nil {
		logging.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Str("account_id", ev.AccountID).
			Msg("event persisted but notification publish failed")
	}
}
