// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package database is the persistence gateway: it owns the DuckDB
// connection and exposes typed CRUD for accounts and events.
//
// Connection lifecycle is an explicit state machine (Disconnected,
// Connecting, Connected). Operations never block on a dead store: when
// the gateway is not Connected they fail immediately with
// ErrNotConnected, and a connection-class operation error flips the
// state and signals the reconnect loop. Reconnection retries at a fixed
// delay indefinitely; a successful attempt atomically swaps in the new
// handle and re-runs schema init.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/usalamaguard/server/internal/config"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/metrics"
)

// ConnState is the gateway connection state.
type ConnState int

const (
	// StateDisconnected means no usable handle exists.
	StateDisconnected ConnState = iota

	// StateConnecting means a reconnection attempt is in progress.
	StateConnecting

	// StateConnected means the handle is live and operations may proceed.
	StateConnected
)

// String implements fmt.Stringer.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by operations while the store is unreachable.
var ErrNotConnected = errors.New("database: not connected")

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("database: not found")

// ErrDuplicateEmail is returned when an account email is already taken.
var ErrDuplicateEmail = errors.New("database: email already registered")

// DB is the persistence gateway handle.
type DB struct {
	cfg config.DatabaseConfig

	mu    sync.RWMutex
	conn  *sql.DB
	state ConnState

	// lost is signaled (non-blocking, capacity 1) when an operation
	// observes a connection-class error.
	lost chan struct{}

	// reconnectMu serializes reconnection attempts.
	reconnectMu sync.Mutex
}

// New creates the gateway and attempts the initial connection.
//
// An initial failure is returned but the handle stays usable: it starts
// Disconnected, operations fail fast, and the reconnect service brings
// it up when the store becomes reachable.
func New(cfg config.DatabaseConfig) (*DB, error) {
	db := &DB{
		cfg:   cfg,
		state: StateDisconnected,
		lost:  make(chan struct{}, 1),
	}
	metrics.SetConnectionState(int(StateDisconnected))

	if err := db.connect(); err != nil {
		logging.Error().Err(err).Str("path", cfg.Path).Msg("initial database connection failed")
		db.signalLost()
		return db, fmt.Errorf("initial connect: %w", err)
	}
	return db, nil
}

// connect opens a fresh handle, verifies it, and installs the schema.
func (db *DB) connect() error {
	db.setState(StateConnecting)

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		db.cfg.Path, db.cfg.EffectiveThreads(), db.cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		db.setState(StateDisconnected)
		return fmt.Errorf("failed to open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = conn.PingContext(pingCtx)
	cancel()
	if err != nil {
		closeQuietly(conn)
		db.setState(StateDisconnected)
		return fmt.Errorf("failed to ping: %w", err)
	}

	configurePool(conn)

	if err := initialize(conn); err != nil {
		closeQuietly(conn)
		db.setState(StateDisconnected)
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.mu.Lock()
	old := db.conn
	db.conn = conn
	db.state = StateConnected
	db.mu.Unlock()
	metrics.SetConnectionState(int(StateConnected))

	if old != nil {
		closeQuietly(old)
	}
	return nil
}

// Reconnect performs a single reconnection attempt. The reconnect
// service calls this in a loop with the configured fixed delay.
func (db *DB) Reconnect(ctx context.Context) error {
	db.reconnectMu.Lock()
	defer db.reconnectMu.Unlock()

	if db.Ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	metrics.DBReconnectAttempts.Inc()
	if err := db.connect(); err != nil {
		return err
	}
	logging.Info().Str("path", db.cfg.Path).Msg("database connection restored")
	return nil
}

// Ready reports whether the gateway is Connected.
func (db *DB) Ready() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.state == StateConnected
}

// State returns the current connection state.
func (db *DB) State() ConnState {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.state
}

// Handle atomically returns the live handle, or ErrNotConnected.
// Callers resolve the handle once per operation so a concurrent
// reconnect never swaps it mid-query.
func (db *DB) Handle() (*sql.DB, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.state != StateConnected || db.conn == nil {
		return nil, ErrNotConnected
	}
	return db.conn, nil
}

// Lost returns the channel signaled when the connection drops.
func (db *DB) Lost() <-chan struct{} {
	return db.lost
}

// ReconnectDelay returns the fixed wait between reconnection attempts.
func (db *DB) ReconnectDelay() time.Duration {
	return db.cfg.ReconnectDelay
}

// Close shuts the gateway down.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state = StateDisconnected
	metrics.SetConnectionState(int(StateDisconnected))
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// noteOperationError flips the gateway to Disconnected when err is a
// connection-class failure, waking the reconnect loop. Query-level
// errors are left to the caller.
func (db *DB) noteOperationError(err error) {
	if !isConnectionError(err) {
		return
	}
	db.mu.Lock()
	wasConnected := db.state == StateConnected
	db.state = StateDisconnected
	db.mu.Unlock()
	metrics.SetConnectionState(int(StateDisconnected))

	if wasConnected {
		logging.Warn().Err(err).Msg("database connection lost")
	}
	db.signalLost()
}

func (db *DB) setState(s ConnState) {
	db.mu.Lock()
	db.state = s
	db.mu.Unlock()
	metrics.SetConnectionState(int(s))
}

func (db *DB) signalLost() {
	select {
	case db.lost <- struct{}{}:
	default:
	}
}

func configurePool(conn *sql.DB) {
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize installs the schema. Idempotent; runs on every (re)connect.
func initialize(conn *sql.DB) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS events_seq START 1`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id                 VARCHAR PRIMARY KEY,
			email              VARCHAR NOT NULL UNIQUE,
			password_hash      VARCHAR NOT NULL,
			notification_email VARCHAR,
			display_name       VARCHAR,
			camera_location    VARCHAR,
			created_at         TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id         VARCHAR PRIMARY KEY,
			account_id VARCHAR NOT NULL,
			seq        BIGINT NOT NULL,
			ts         TIMESTAMP NOT NULL,
			image      VARCHAR,
			type       VARCHAR NOT NULL,
			location   VARCHAR,
			severity   VARCHAR,
			status     VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_account_ts ON events (account_id, ts)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// isConnectionError reports whether err indicates connection loss rather
// than a query-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "database has been invalidated")
}

// isUniqueViolation reports whether err is a unique-constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Constraint Error")
}

func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("close failed")
	}
}
