// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/websocket"
)

// ServeWS handles GET /events/ws: upgrades the connection and registers
// a session with the hub. A ?userId= query subscribes the session to
// that account immediately; otherwise the client sends a subscribe
// message after connecting.
func (h *Handlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "realtime notifications are disabled", nil)
		return
	}

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	client.Start(r.URL.Query().Get("userId"))
}

// checkOrigin enforces the configured CORS origins on upgrades. An
// empty list or a "*" entry admits every origin; browserless camera
// agents send no Origin header and are always admitted.
func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
