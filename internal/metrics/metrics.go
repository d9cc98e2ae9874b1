// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

// Package metrics provides Prometheus instrumentation for the server:
// store query performance, API latency and throughput, broadcast
// delivery, and live WebSocket sessions. Exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	DBConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_state",
			Help: "Store connection state (0=disconnected, 1=connecting, 2=connected)",
		},
	)

	DBReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_reconnect_attempts_total",
			Help: "Total number of store reconnection attempts",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Broadcast metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of event notifications published to the broker",
		},
		[]string{"kind"},
	)

	EventsPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Total number of failed event notification publishes",
		},
	)

	EventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_delivered_total",
			Help: "Total number of event notifications delivered to live sessions",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of notifications dropped due to slow sessions",
		},
	)

	// Session metrics
	WSActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_sessions",
			Help: "Current number of connected WebSocket sessions",
		},
	)

	WSSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_account_subscriptions",
			Help: "Current number of account subscriptions across all sessions",
		},
	)
)

// RecordDBQuery records store query duration and failure counts.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records request counts and latency per endpoint.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish records a broker publish attempt by notification kind.
func RecordPublish(kind string, err error) {
	if err != nil {
		EventsPublishErrors.Inc()
		return
	}
	EventsPublished.WithLabelValues(kind).Inc()
}

// SetConnectionState updates the store connection gauge.
func SetConnectionState(state int) {
	DBConnectionState.Set(float64(state))
}
