// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"
	"time"
)

// healthStatus is the payload of the health and probe endpoints.
type healthStatus struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /api/v1/health: an overall report that stays 200
// even while the event store is reconnecting, so monitors can
// distinguish a degraded process from a dead one.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := healthStatus{
		Status:    "healthy",
		Store:     "connected",
		Timestamp: time.Now(),
	}
	if !h.events.Ready() {
		status.Status = "degraded"
		status.Store = "disconnected"
	}

	respondSuccess(w, http.StatusOK, status, start)
}

// Live handles GET /api/v1/live: the process is up.
func (h *Handlers) Live(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, healthStatus{Status: "alive", Timestamp: time.Now()}, time.Now())
}

// Ready handles GET /api/v1/ready: 503 until the event store can serve
// traffic, so load balancers stop routing during an outage.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !h.events.Ready() {
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "event store is not ready", nil)
		return
	}

	respondSuccess(w, http.StatusOK, healthStatus{
		Status:    "ready",
		Store:     "connected",
		Timestamp: time.Now(),
	}, start)
}
