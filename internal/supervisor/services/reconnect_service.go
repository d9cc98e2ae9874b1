// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package services

import (
	"context"
	"time"

	"github.com/usalamaguard/server/internal/logging"
)

// ReconnectableStore matches the persistence gateway's connection
// lifecycle without importing the database package.
type ReconnectableStore interface {
	Ready() bool
	Lost() <-chan struct{}
	Reconnect(ctx context.Context) error
	ReconnectDelay() time.Duration
}

// StoreReconnectService restores the persistence gateway after an
// outage. While the gateway is down it retries indefinitely on a fixed
// delay; requests keep failing fast in the meantime rather than
// queueing behind the retry loop.
type StoreReconnectService struct {
	store ReconnectableStore
	name  string
}

// NewStoreReconnectService wraps a gateway for supervision.
func NewStoreReconnectService(store ReconnectableStore) *StoreReconnectService {
	return &StoreReconnectService{store: store, name: "store-reconnect"}
}

// Serve implements suture.Service. It sleeps until the gateway signals
// a lost connection, then retries until the connection is restored.
func (s *StoreReconnectService) Serve(ctx context.Context) error {
	for {
		if !s.store.Ready() {
			if err := s.reconnectUntilRestored(ctx); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.store.Lost():
			logging.Warn().
				Str("component", s.name).
				Msg("persistence gateway connection lost")
		}
	}
}

// reconnectUntilRestored retries on the gateway's fixed delay until a
// connection attempt succeeds. Only context cancellation stops it.
func (s *StoreReconnectService) reconnectUntilRestored(ctx context.Context) error {
	delay := s.store.ReconnectDelay()
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.store.Reconnect(ctx); err != nil {
			logging.Warn().
				Err(err).
				Str("component", s.name).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Msg("reconnect attempt failed")
			timer.Reset(delay)
			continue
		}

		logging.Info().
			Str("component", s.name).
			Int("attempts", attempt).
			Msg("persistence gateway connection restored")
		return nil
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *StoreReconnectService) String() string {
	return s.name
}
