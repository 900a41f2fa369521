// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/okhomenko/moodflick/internal/metrics"
	"github.com/okhomenko/moodflick/internal/models"
	"github.com/okhomenko/moodflick/internal/recommend"
	"github.com/okhomenko/moodflick/internal/tags"
)

// recommendRequest is the POST /api/v1/recommendations body.
type recommendRequest struct {
	UserID         string   `json:"user_id" validate:"required"`
	State          string   `json:"state" validate:"omitempty,oneof=light heavy escape"`
	Pace           string   `json:"pace" validate:"omitempty,oneof=slow fast"`
	Format         string   `json:"format" validate:"omitempty,oneof=movie series"`
	Hint           string   `json:"hint" validate:"omitempty,max=500"`
	Mode           string   `json:"mode" validate:"omitempty,oneof=normal another miss_recover"`
	ExcludeItemIDs []string `json:"exclude_item_ids" validate:"omitempty,max=100"`
}

func (rt *Router) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !rt.decode(w, r, &req) {
		return
	}

	if err := rt.store.EnsureUser(r.Context(), req.UserID); err != nil {
		rt.logger.Error().Err(err).Msg("ensure user failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to record user")
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ModeNormal
	}

	exclude := make(map[string]struct{}, len(req.ExcludeItemIDs))
	for _, id := range req.ExcludeItemIDs {
		exclude[id] = struct{}{}
	}

	engineReq := recommend.Request{
		UserID: req.UserID,
		Answers: tags.Answers{
			State:  req.State,
			Pace:   req.Pace,
			Format: req.Format,
			Hint:   req.Hint,
		},
		Mode:           mode,
		ExcludeItemIDs: exclude,
	}
	if mode == models.ModeAnother {
		engineReq.LastContext = rt.lastSelectionContext(r.Context(), req.UserID)
	}

	result, err := rt.engine.Recommend(r.Context(), engineReq)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues(mode, "error").Inc()
		rt.logger.Error().Err(err).Str("user_id", req.UserID).Msg("recommendation failed")
		writeError(w, http.StatusInternalServerError, "recommendation_failed", "could not produce a recommendation")
		return
	}
	if result == nil {
		metrics.RecommendationsTotal.WithLabelValues(mode, "empty").Inc()
		writeError(w, http.StatusNotFound, "no_candidates", "no eligible items for this request")
		return
	}

	metrics.RecommendationsTotal.WithLabelValues(mode, "served").Inc()
	metrics.RecommendationScore.Observe(result.Meta.Score)
	metrics.CandidatePoolSize.Observe(float64(result.Meta.CandidateCount))
	writeJSON(w, http.StatusOK, result)
}

// feedbackRequest is the POST /api/v1/feedback body.
type feedbackRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	SelectionID string `json:"selection_id" validate:"required"`
	Action      string `json:"action" validate:"required,oneof=hit miss another favorite share silent_drop"`
	Reason      string `json:"reason" validate:"omitempty,oneof=tooslow tooheavy notvibe"`
}

type feedbackResponse struct {
	WeightChanges map[string]int `json:"weight_changes"`
}

func (rt *Router) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !rt.decode(w, r, &req) {
		return
	}

	changes, err := rt.updater.UpdateWeights(r.Context(), req.UserID, req.SelectionID, req.Action, req.Reason)
	if err != nil {
		rt.logger.Error().Err(err).Str("selection_id", req.SelectionID).Msg("weight update failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to apply feedback")
		return
	}

	metrics.WeightUpdatesTotal.WithLabelValues(req.Action).Inc()

	// A favorite also feeds the anti-repeat policy: favorited items
	// become eligible again after the window.
	if len(changes) > 0 && req.Action == models.ActionFavorite {
		rt.preferenceSideEffect(r.Context(), req.UserID, req.SelectionID, rt.store.AddFavorite)
	}

	writeJSON(w, http.StatusOK, feedbackResponse{WeightChanges: changes})
}

// preferenceSideEffect resolves the selection's item and applies a
// preference write. Best-effort: failures are logged, not surfaced.
func (rt *Router) preferenceSideEffect(ctx context.Context, userID, selectionID string, apply func(context.Context, string, string) error) {
	sel, err := rt.store.GetSelection(ctx, selectionID)
	if err != nil || sel == nil {
		rt.logger.Warn().Err(err).Str("selection_id", selectionID).Msg("preference side effect skipped")
		return
	}
	if err := apply(ctx, userID, sel.ItemID); err != nil {
		rt.logger.Warn().Err(err).Str("item_id", sel.ItemID).Msg("preference side effect failed")
	}
}

// preferenceRequest is the favorites/dismissals body.
type preferenceRequest struct {
	UserID string `json:"user_id" validate:"required"`
	ItemID string `json:"item_id" validate:"required"`
}

func (rt *Router) handleFavorite(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if err := rt.store.AddFavorite(r.Context(), req.UserID, req.ItemID); err != nil {
		rt.logger.Error().Err(err).Msg("add favorite failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to save favorite")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (rt *Router) handleDismissal(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if err := rt.store.AddDismissal(r.Context(), req.UserID, req.ItemID); err != nil {
		rt.logger.Error().Err(err).Msg("add dismissal failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to save dismissal")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (rt *Router) handleListWeights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	weights, err := rt.updater.AllWeights(r.Context(), userID)
	if err != nil {
		rt.logger.Error().Err(err).Msg("list weights failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list weights")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "weights": weights})
}

func (rt *Router) handleResetWeights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := rt.updater.Reset(r.Context(), userID); err != nil {
		rt.logger.Error().Err(err).Msg("reset weights failed")
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to reset weights")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// decode reads, unmarshals, and validates a JSON request body. It
// writes the error response itself and reports success.
func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorResponse{"error": {Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
