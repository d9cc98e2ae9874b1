// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package websocket implements the session registry and per-account
// event fan-out to connected clients.
//
// The hub owns two structures: the set of live sessions, and an
// account-to-sessions index populated by explicit Subscribe calls. A
// notification for account A goes to exactly the sessions subscribed to
// A at delivery time; sessions connecting afterwards never see it.
package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/metrics"
	"github.com/usalamaguard/server/internal/models"
)

// Message types for WebSocket communication. Event notifications use
// per-account types built by MessageTypeNewEvent / MessageTypeEventUpdated.
const (
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeSubscribe = "subscribe"
)

// MessageTypeNewEvent returns the message type announcing a new event
// for the given account.
func MessageTypeNewEvent(accountID string) string {
	return fmt.Sprintf("new_event_%s", accountID)
}

// MessageTypeEventUpdated returns the message type announcing a status
// change for the given account.
func MessageTypeEventUpdated(accountID string) string {
	return fmt.Sprintf("event_updated_%s", accountID)
}

// Message is a WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// accountMessage pairs a message with the account whose sessions
// receive it.
type accountMessage struct {
	accountID string
	message   Message
}

// Hub maintains the set of live sessions and the account subscription
// index, and routes event notifications to the owning account's
// sessions.
type Hub struct {
	clients  map[*Client]bool
	accounts map[string]map[*Client]bool

	broadcast  chan accountMessage
	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		accounts:   make(map[string]map[*Client]bool),
		broadcast:  make(chan accountMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub without shutdown support. Prefer RunWithContext.
func (h *Hub) Run() {
	_ = h.RunWithContext(context.Background())
}

// RunWithContext runs the hub loop until ctx is cancelled, then closes
// every session and returns ctx.Err(). Designed for suture supervision.
//
// Selection is priority ordered (shutdown, lifecycle, broadcast) so
// registry state is consistent before any message is routed; Go's
// select picks randomly among ready channels otherwise.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case am := <-h.broadcast:
			h.deliver(am)
		}
	}
}

// Subscribe adds a session to an account's delivery set. A session may
// subscribe to several accounts; duplicate subscriptions are no-ops.
func (h *Hub) Subscribe(client *Client, accountID string) {
	if accountID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		// Never index a session the registry no longer owns.
		return
	}
	h.subscribeLocked(client, accountID)
}

// subscribeLocked adds a registered session to an account's delivery
// set. Caller holds h.mu.
func (h *Hub) subscribeLocked(client *Client, accountID string) {
	set, ok := h.accounts[accountID]
	if !ok {
		set = make(map[*Client]bool)
		h.accounts[accountID] = set
	}
	if !set[client] {
		set[client] = true
		client.subscriptions[accountID] = true
		metrics.WSSubscriptions.Inc()
		logging.Debug().
			Uint64("client_id", client.id).
			Str("account_id", accountID).
			Msg("session subscribed")
	}
}

// PublishEventCreated routes a new-event notification to the owning
// account's sessions. Non-blocking; drops with a warning if the hub's
// queue is full.
func (h *Hub) PublishEventCreated(ev *models.Event) {
	h.enqueue(ev.AccountID, Message{Type: MessageTypeNewEvent(ev.AccountID), Data: ev})
}

// PublishEventUpdated routes a status-change notification to the owning
// account's sessions.
func (h *Hub) PublishEventUpdated(ev *models.Event) {
	h.enqueue(ev.AccountID, Message{Type: MessageTypeEventUpdated(ev.AccountID), Data: ev})
}

func (h *Hub) enqueue(accountID string, msg Message) {
	select {
	case h.broadcast <- accountMessage{accountID: accountID, message: msg}:
	default:
		logging.Warn().
			Str("account_id", accountID).
			Str("message_type", msg.Type).
			Msg("broadcast queue full, dropping notification")
		metrics.EventsDropped.Inc()
	}
}

// deliver sends a message to every session subscribed to the account,
// in client-ID order. Sessions with a full send buffer are dropped from
// the registry; a stalled reader must not stall everyone else.
func (h *Hub) deliver(am accountMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.accounts[am.accountID]
	if len(set) == 0 {
		return
	}

	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- am.message:
			metrics.EventsDelivered.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket session")
		metrics.EventsDropped.Inc()
		h.removeClientLocked(client)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if client.initialAccount != "" {
		// The upgrade-query subscription is indexed under the same
		// lock as registration; the session is never visible to
		// deliver without it.
		h.subscribeLocked(client, client.initialAccount)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSActiveSessions.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket session connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	h.removeClientLocked(client)
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSActiveSessions.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket session disconnected")
}

// removeClientLocked drops a session from the registry and every
// account set. Caller holds h.mu.
func (h *Hub) removeClientLocked(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for accountID := range client.subscriptions {
		if set, ok := h.accounts[accountID]; ok {
			if set[client] {
				delete(set, client)
				metrics.WSSubscriptions.Dec()
			}
			if len(set) == 0 {
				delete(h.accounts, accountID)
			}
		}
	}
}

// shutdown closes every session in ID order.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		h.removeClientLocked(client)
	}
	h.mu.Unlock()
	metrics.WSActiveSessions.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// GetClientCount returns the number of connected sessions.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AccountSessionCount returns the number of sessions subscribed to an
// account.
func (h *Hub) AccountSessionCount(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[accountID])
}
