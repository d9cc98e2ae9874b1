// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package main is the entry point for the UsalamaGuard backend.
//
// UsalamaGuard ingests security-camera events, persists them per
// account, and pushes realtime notifications to each account's
// connected WebSocket sessions.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering defaults, config file, env vars
//  2. Logging: zerolog, JSON by default
//  3. Persistence gateway: DuckDB; an unreachable database does not
//     abort startup, the reconnect service keeps retrying while
//     requests fail fast
//  4. Broadcast transport: embedded (or external) core NATS
//  5. WebSocket hub and broker bridge
//  6. HTTP server: chi router on port 3000 by default
//  7. Supervision tree: suture restarts any crashed component
//
// # Configuration
//
// Environment variables override the config file which overrides
// defaults. The only required setting is JWT_SECRET. See
// internal/config for the full key list.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP listener
// drains in-flight requests, every WebSocket session receives a close
// frame, then the broker and database close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usalamaguard/server/internal/api"
	"github.com/usalamaguard/server/internal/auth"
	"github.com/usalamaguard/server/internal/broker"
	"github.com/usalamaguard/server/internal/config"
	"github.com/usalamaguard/server/internal/database"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/store"
	"github.com/usalamaguard/server/internal/supervisor"
	"github.com/usalamaguard/server/internal/supervisor/services"
	"github.com/usalamaguard/server/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("database", cfg.Database.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("starting usalamaguard backend")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The gateway tolerates an unreachable database at startup: requests
	// fail fast with 5xx while the reconnect service retries.
	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Warn().Err(err).Msg("database unreachable at startup, will keep retrying")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("database close failed")
		}
	}()

	var idem *store.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idem, err = store.NewIdempotencyStore(cfg.Idempotency)
		if err != nil {
			return fmt.Errorf("init idempotency store: %w", err)
		}
		defer func() {
			if err := idem.Close(); err != nil {
				logging.Error().Err(err).Msg("idempotency store close failed")
			}
		}()
	}

	events := store.NewEventStore(db, idem, cfg.Database.OpTimeout)
	accounts := store.NewAccountDirectory(db, cfg.Security.BcryptCost, cfg.Database.OpTimeout)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewStoreReconnectService(db))

	var (
		publisher *broker.Publisher
		hub       *websocket.Hub
	)
	if cfg.NATS.Enabled {
		brokerURL := cfg.NATS.URL
		if cfg.NATS.EmbeddedServer {
			srv, err := broker.NewEmbeddedServer(&cfg.NATS)
			if err != nil {
				return fmt.Errorf("start embedded nats: %w", err)
			}
			brokerURL = srv.ClientURL()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logging.Error().Err(err).Msg("embedded nats shutdown failed")
				}
			}()
		}

		publisher, err = broker.NewPublisher(brokerURL, nil)
		if err != nil {
			return fmt.Errorf("init broker publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Error().Err(err).Msg("broker publisher close failed")
			}
		}()

		subscriber, err := broker.NewSubscriber(brokerURL, nil)
		if err != nil {
			return fmt.Errorf("init broker subscriber: %w", err)
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				logging.Error().Err(err).Msg("broker subscriber close failed")
			}
		}()

		hub = websocket.NewHub()
		tree.AddMessagingService(services.NewHubService(hub))
		tree.AddMessagingService(services.NewBridgeService(websocket.NewBrokerBridge(subscriber, hub)))
	} else {
		logging.Warn().Msg("broadcast transport disabled, events will not reach live sessions")
	}

	handlers := api.NewHandlers(events, accounts, publisherOrNil(publisher), jwtManager, hub, cfg.Security.CORSOrigins)
	router := api.NewRouter(handlers, &cfg.Security)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("supervision tree starting")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logging.Info().Msg("shutdown complete")
	return nil
}

// publisherOrNil keeps a typed-nil *broker.Publisher out of the
// api.EventPublisher interface value.
func publisherOrNil(p *broker.Publisher) api.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
