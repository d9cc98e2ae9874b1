// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("default server.port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.ReconnectDelay != 5*time.Second {
		t.Errorf("default reconnect_delay = %v, want 5s", cfg.Database.ReconnectDelay)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Errorf("default bcrypt_cost = %d, want 12", cfg.Security.BcryptCost)
	}
	if !cfg.NATS.EmbeddedServer {
		t.Error("default nats.embedded_server should be true")
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("default cors_origins = %v, want [*]", cfg.Security.CORSOrigins)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("database.path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.NATS.Enabled {
		t.Error("nats.enabled should be false")
	}
}

func TestCORSOriginsCommaSeparated(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://app.usalamaguard.com, http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []string{"https://app.usalamaguard.com", "http://localhost:5173"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("cors_origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i, origin := range want {
		if cfg.Security.CORSOrigins[i] != origin {
			t.Errorf("cors_origins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], origin)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9000\ndatabase:\n  path: /tmp/test.duckdb\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000 from file", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("database.path = %q, want /tmp/test.duckdb", cfg.Database.Path)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("server.port = %d, want env override 8081", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero reconnect delay", func(c *Config) { c.Database.ReconnectDelay = 0 }, true},
		{"bcrypt cost too low", func(c *Config) { c.Security.BcryptCost = 4 }, true},
		{"external nats without url", func(c *Config) {
			c.NATS.EmbeddedServer = false
			c.NATS.URL = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
