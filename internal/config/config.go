// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package config loads layered server configuration: built-in defaults,
// an optional YAML file, then environment variables, in increasing
// precedence.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	NATS        NATSConfig        `koanf:"nats"`
	Security    SecurityConfig    `koanf:"security"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds DuckDB settings for the event store.
type DatabaseConfig struct {
	// Path is the database file location. ":memory:" keeps everything
	// in-process, which tests rely on.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`

	// Threads caps DuckDB worker threads. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// OpTimeout bounds every store operation.
	OpTimeout time.Duration `koanf:"op_timeout"`

	// ReconnectDelay is the fixed wait between reconnection attempts
	// after the store becomes unreachable. Attempts repeat indefinitely.
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`
}

// EffectiveThreads resolves the configured thread count.
func (c DatabaseConfig) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

// NATSConfig holds broadcast transport settings.
type NATSConfig struct {
	Enabled bool `koanf:"enabled"`

	// EmbeddedServer runs an in-process NATS server instead of dialing
	// an external one.
	EmbeddedServer bool   `koanf:"embedded_server"`
	URL            string `koanf:"url"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
}

// SecurityConfig holds authentication and request-limiting settings.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	BcryptCost     int           `koanf:"bcrypt_cost"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// IdempotencyConfig holds settings for the optional event dedup store.
type IdempotencyConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the BadgerDB directory. Empty means in-memory.
	Path string        `koanf:"path"`
	TTL  time.Duration `koanf:"ttl"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns a Config with all default values applied. Defaults are
// layered first, then overridden by the config file and env vars.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:           "/data/usalamaguard.duckdb",
			MaxMemory:      "1GB",
			Threads:        0,
			OpTimeout:      30 * time.Second,
			ReconnectDelay: 5 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:        true,
			EmbeddedServer: true,
			URL:            "nats://127.0.0.1:4222",
			Host:           "127.0.0.1",
			Port:           4222,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			BcryptCost:        12,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Idempotency: IdempotencyConfig{
			Enabled: false,
			Path:    "",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.ReconnectDelay <= 0 {
		return fmt.Errorf("database.reconnect_delay must be positive")
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost %d out of range [10,31]", c.Security.BcryptCost)
	}
	if c.NATS.Enabled && !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.embedded_server is false")
	}
	return nil
}
