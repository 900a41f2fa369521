// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package metrics exposes Prometheus instrumentation for the HTTP
// surface, the recommendation engine, and the learning loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflick_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodflick_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// RecommendationsTotal counts recommendations by mode and outcome
	// (served, empty, error).
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflick_recommendations_total",
			Help: "Recommendations by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// RecommendationScore observes the winning candidate's score.
	RecommendationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodflick_recommendation_score",
			Help:    "Score of the selected candidate",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 15},
		},
	)

	// CandidatePoolSize observes how many candidates survived scoring.
	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodflick_candidate_pool_size",
			Help:    "Scored candidates per request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// WeightUpdatesTotal counts applied feedback by action.
	WeightUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflick_weight_updates_total",
			Help: "Weight updates by feedback action",
		},
		[]string{"action"},
	)

	// LLMRequestsTotal counts LLM calls by operation and outcome.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflick_llm_requests_total",
			Help: "LLM calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
