// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package api provides the HTTP surface: recommendation and feedback
// endpoints, user preference writes, weight inspection, health, and
// the Prometheus scrape endpoint.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/okhomenko/moodflick/internal/learning"
	"github.com/okhomenko/moodflick/internal/metrics"
	"github.com/okhomenko/moodflick/internal/models"
	"github.com/okhomenko/moodflick/internal/recommend"
	"github.com/okhomenko/moodflick/internal/storage"
)

// Engine is the recommendation entry point the router serves.
type Engine interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// Router wires handlers to their collaborators.
type Router struct {
	engine   Engine
	updater  *learning.Updater
	store    *storage.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewRouter creates the API router.
func NewRouter(engine Engine, updater *learning.Updater, store *storage.Store, logger zerolog.Logger) *Router {
	return &Router{
		engine:   engine,
		updater:  updater,
		store:    store,
		validate: validator.New(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Handler builds the chi handler tree. rateLimitPerMinute caps
// requests per client IP; zero disables rate limiting.
func (rt *Router) Handler(rateLimitPerMinute int) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.requestLogger)
	r.Use(instrument)
	if rateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(rateLimitPerMinute, time.Minute))
	}

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", rt.handleRecommend)
		r.Post("/feedback", rt.handleFeedback)
		r.Post("/favorites", rt.handleFavorite)
		r.Post("/dismissals", rt.handleDismissal)
		r.Get("/users/{userID}/weights", rt.handleListWeights)
		r.Delete("/users/{userID}/weights", rt.handleResetWeights)
	})

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := rt.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage is unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger emits one structured line per request.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// instrument records Prometheus counters and latency per route.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// lastSelectionContext loads the user's previous selection context for
// "another" mode. Missing history is fine; the engine falls back to a
// plain recommendation.
func (rt *Router) lastSelectionContext(ctx context.Context, userID string) *models.SelectionContext {
	sel, err := rt.store.GetLastSelection(ctx, userID)
	if err != nil {
		rt.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load last selection")
		return nil
	}
	if sel == nil {
		return nil
	}
	return &sel.Context
}
