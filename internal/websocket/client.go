// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/usalamaguard/server/internal/logging"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // inbound frames are control messages only

	// Inbound message budget per session. Subscribes and pings are
	// cheap but a misbehaving client must not spin the read loop.
	inboundRatePerSecond = 5
	inboundRateBurst     = 10
)

// clientIDCounter assigns unique, monotonically increasing session IDs
// so fan-out iterates sessions in a stable order.
var clientIDCounter atomic.Uint64

// Client is one WebSocket session: the middleman between the connection
// and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// subscriptions tracks which account sets index this session.
	// Owned by the hub; guarded by hub.mu.
	subscriptions map[string]bool

	// initialAccount is the ?userId= upgrade query, set once before the
	// session is handed to the hub. The hub indexes it under the same
	// lock as registration, so a publish that observes the session also
	// observes the subscription.
	initialAccount string

	limiter *rate.Limiter
}

// NewClient creates a session for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:            clientIDCounter.Add(1),
		hub:           hub,
		conn:          conn,
		send:          make(chan Message, 256),
		subscriptions: make(map[string]bool),
		limiter:       rate.NewLimiter(rate.Limit(inboundRatePerSecond), inboundRateBurst),
	}
}

// ID returns the session's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start registers the session and begins its read and write pumps.
// initialAccountID, when non-empty, subscribes the session immediately
// (from the ?userId= upgrade query).
func (c *Client) Start(initialAccountID string) {
	c.initialAccount = initialAccountID
	c.hub.Register <- c
	go c.writePump()
	go c.readPump()
}

// subscribePayload is the data of a client "subscribe" message.
type subscribePayload struct {
	AccountID string `json:"userId"`
}

// readPump consumes inbound frames: pings and account subscriptions.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		if !c.limiter.Allow() {
			logging.Warn().Uint64("client_id", c.id).Msg("inbound message rate exceeded, ignoring")
			continue
		}

		switch msg.Type {
		case MessageTypePing:
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		case MessageTypeSubscribe:
			c.handleSubscribe(msg.Data)
		}
	}
}

func (c *Client) handleSubscribe(data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var payload subscribePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.AccountID == "" {
		logging.Debug().Uint64("client_id", c.id).Msg("ignoring malformed subscribe message")
		return
	}
	c.hub.Subscribe(c, payload.AccountID)
}

// writePump forwards hub messages to the connection and keeps the
// session alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub dropped this session.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
