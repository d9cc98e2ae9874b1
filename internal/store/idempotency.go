// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/usalamaguard/server/internal/config"
	"github.com/usalamaguard/server/internal/logging"
)

// keyPrefix namespaces idempotency keys inside the Badger store.
const keyPrefix = "idem:"

// IdempotencyStore records seen Idempotency-Key values so retried event
// creates return the original record instead of inserting a duplicate.
// Entries expire after the configured TTL; a retry arriving later than
// that creates a new event, which is acceptable for camera agents that
// retry within seconds.
type IdempotencyStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewIdempotencyStore opens the Badger-backed key store. An empty path
// keeps the store in memory, which tests and small deployments use.
func NewIdempotencyStore(cfg config.IdempotencyConfig) (*IdempotencyStore, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open idempotency store: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{db: db, ttl: ttl}, nil
}

// Lookup returns the event ID previously recorded for key, if any.
func (s *IdempotencyStore) Lookup(key string) (eventID string, seen bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		eventID = string(val)
		seen = true
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return eventID, seen, nil
}

// Record associates key with eventID for the configured TTL.
func (s *IdempotencyStore) Record(key, eventID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), []byte(eventID)).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("idempotency record: %w", err)
	}
	return nil
}

// Close releases the Badger store.
func (s *IdempotencyStore) Close() error {
	if err := s.db.Close(); err != nil {
		logging.Err(err).Msg("idempotency store close failed")
		return err
	}
	return nil
}
