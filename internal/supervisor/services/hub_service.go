// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package services

import (
	"context"
)

// ContextRunner is anything that runs until its context is cancelled.
// Satisfied by *websocket.Hub (RunWithContext) via a small adapter, and
// by *websocket.BrokerBridge (Run) directly.
type ContextRunner interface {
	Run(ctx context.Context) error
}

// ContextHub matches *websocket.Hub without importing the websocket
// package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the WebSocket session registry.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService wraps a hub for supervision.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub, name: "websocket-hub"}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *HubService) String() string {
	return s.name
}

// BridgeService supervises the broker-to-hub event bridge.
type BridgeService struct {
	bridge ContextRunner
	name   string
}

// NewBridgeService wraps a bridge for supervision.
func NewBridgeService(bridge ContextRunner) *BridgeService {
	return &BridgeService{bridge: bridge, name: "broker-bridge"}
}

// Serve implements suture.Service.
func (s *BridgeService) Serve(ctx context.Context) error {
	return s.bridge.Run(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *BridgeService) String() string {
	return s.name
}
