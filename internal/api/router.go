// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usalamaguard/server/internal/config"
	"github.com/usalamaguard/server/internal/middleware"
)

// Stricter limit for credential endpoints to slow brute forcing.
var authRateLimit = struct {
	requests int
	window   time.Duration
}{requests: 10, window: time.Minute}

// NewRouter assembles the HTTP routing table with the shared middleware
// stack.
func NewRouter(h *Handlers, sec *config.SecurityConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sec.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		MaxAge:         86400,
	}))

	rateLimit := func(requests int, window time.Duration) func(http.Handler) http.Handler {
		if sec.RateLimitDisabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return httprate.LimitByRealIP(requests, window)
	}

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(authRateLimit.requests, authRateLimit.window))
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(sec.RateLimitReqs, sec.RateLimitWindow))

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Get("/camera-location", h.GetCameraLocation)
			r.Patch("/camera-location", h.UpdateCameraLocation)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Get("/ws", h.ServeWS)
			r.Patch("/{id}", h.UpdateEventStatus)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/live", h.Live)
		r.Get("/ready", h.Ready)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
