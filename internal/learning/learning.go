// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package learning maps feedback actions to weight deltas on per-user
// per-context accumulators and converts accumulated weight into a
// bounded scoring bonus.
package learning

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/okhomenko/moodflick/internal/models"
	"github.com/okhomenko/moodflick/internal/tags"
)

// DefaultBonusMultiplier scales raw weight into score bonus.
const DefaultBonusMultiplier = 0.25

// rewards maps feedback actions to base weight deltas. Unknown actions
// are rejected, never defaulted to zero-with-effect.
var rewards = map[string]int{
	models.ActionHit:        2,
	models.ActionAnother:    1,
	models.ActionMiss:       -2,
	models.ActionFavorite:   2,
	models.ActionShare:      2,
	models.ActionSilentDrop: -1,
}

// RewardFor returns the base reward for a feedback action. The second
// return is false for unknown actions.
func RewardFor(action string) (int, bool) {
	r, ok := rewards[action]
	return r, ok
}

// WeightBonus converts an accumulated weight into a scoring bonus.
//
// Linear for |weight| <= 10; beyond that a logarithmic soft cap keeps
// heavily-reinforced contexts from dominating while still rewarding
// continued signal. Symmetric in sign.
func WeightBonus(weight int, multiplier float64) float64 {
	if abs := math.Abs(float64(weight)); abs > 10 {
		sign := 1.0
		if weight < 0 {
			sign = -1.0
		}
		return sign * (10 + math.Log(abs-9)) * multiplier
	}
	return float64(weight) * multiplier
}

// SelectionGetter resolves selection records by id.
// A missing record is (nil, nil), not an error.
type SelectionGetter interface {
	GetSelection(ctx context.Context, id string) (*models.Selection, error)
}

// WeightStore persists per-user per-context weight accumulators.
// AddWeightDelta must be an atomic upsert: create at delta when absent,
// otherwise add (two concurrent deltas commute, none is lost).
type WeightStore interface {
	Weight(ctx context.Context, userID, contextKey string) (int, error)
	AllWeights(ctx context.Context, userID string) (map[string]int, error)
	AddWeightDelta(ctx context.Context, userID, contextKey string, delta int) error
	ResetWeights(ctx context.Context, userID string) error
}

// EventLogger records structured audit events. Emission failures must
// never fail the operation that produced the event.
type EventLogger interface {
	LogEvent(ctx context.Context, ev models.Event) error
}

// Updater applies feedback to a user's learned weights.
type Updater struct {
	selections SelectionGetter
	weights    WeightStore
	events     EventLogger
	logger     zerolog.Logger
}

// NewUpdater creates a weight updater.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewUpdater(selections SelectionGetter, weights WeightStore, events EventLogger, logger zerolog.Logger) *Updater {
	return &Updater{
		selections: selections,
		weights:    weights,
		events:     events,
		logger:     logger.With().Str("component", "learning").Logger(),
	}
}

// UpdateWeights applies a feedback action to the context the selection
// was actually shown under, returning the map of deltas applied.
//
// The context key is recomputed from the selection's stored snapshot,
// never from caller-supplied answers. Unknown actions and missing
// selection records are logged no-ops with an empty delta map.
func (u *Updater) UpdateWeights(ctx context.Context, userID, selectionID, action, reason string) (map[string]int, error) {
	sel, err := u.selections.GetSelection(ctx, selectionID)
	if err != nil {
		return nil, fmt.Errorf("get selection: %w", err)
	}
	if sel == nil {
		u.logger.Warn().
			Str("selection_id", selectionID).
			Msg("selection not found for weight update")
		return map[string]int{}, nil
	}

	answers := tags.Answers{
		State:  sel.Context.State,
		Pace:   sel.Context.Pace,
		Format: sel.Context.Format,
	}.WithDefaults()
	key := tags.ContextKey(answers)

	reward, known := RewardFor(action)
	if !known {
		u.logger.Warn().
			Str("action", action).
			Msg("unknown feedback action")
		return map[string]int{}, nil
	}

	changes := make(map[string]int, 2)

	if err := u.weights.AddWeightDelta(ctx, userID, key, reward); err != nil {
		return nil, fmt.Errorf("apply weight delta: %w", err)
	}
	changes[key] = reward
	u.logger.Debug().
		Str("user_id", userID).
		Str("context_key", key).
		Int("delta", reward).
		Msg("applied weight delta")

	if action == models.ActionMiss && reason != "" {
		if err := u.applyMissCorrection(ctx, userID, answers, reason, changes); err != nil {
			return nil, err
		}
	}

	u.emitEvent(ctx, userID, selectionID, action, reason, reward, key, changes)

	return changes, nil
}

// applyMissCorrection applies the secondary +1 correction for a miss
// reason onto the adjacent context key.
func (u *Updater) applyMissCorrection(ctx context.Context, userID string, answers tags.Answers, reason string, changes map[string]int) error {
	var altKey string

	switch reason {
	case models.ReasonTooSlow:
		alt := answers
		alt.Pace = oppositePace(answers.Pace)
		altKey = tags.ContextKey(alt)

	case models.ReasonTooHeavy:
		opposite := oppositeState(answers.State)
		if opposite == answers.State {
			// escape has no opposite; no correction applies.
			return nil
		}
		alt := answers
		alt.State = opposite
		altKey = tags.ContextKey(alt)

	case models.ReasonNotMyVibe:
		// No secondary correction yet. Tone-bucket keyed weights are a
		// possible extension once tone feedback carries enough signal.
		return nil

	default:
		u.logger.Warn().Str("reason", reason).Msg("unknown miss reason")
		return nil
	}

	if err := u.weights.AddWeightDelta(ctx, userID, altKey, 1); err != nil {
		return fmt.Errorf("apply miss correction: %w", err)
	}
	changes[altKey] += 1
	return nil
}

// emitEvent writes the audit record for a weight update. Failures are
// logged and swallowed.
func (u *Updater) emitEvent(ctx context.Context, userID, selectionID, action, reason string, reward int, key string, changes map[string]int) {
	ev := models.Event{
		Name:        "weights_updated",
		UserID:      userID,
		SelectionID: selectionID,
		Payload: map[string]any{
			"action":         action,
			"reason":         reason,
			"reward":         reward,
			"context_key":    key,
			"weight_changes": changes,
		},
	}
	if err := u.events.LogEvent(ctx, ev); err != nil {
		u.logger.Warn().Err(err).Msg("failed to log weights_updated event")
	}
}

// UserWeight returns the user's weight for the context derived from
// the given answers.
func (u *Updater) UserWeight(ctx context.Context, userID string, answers tags.Answers) (int, error) {
	return u.weights.Weight(ctx, userID, tags.ContextKey(answers))
}

// AllWeights returns every learned weight for a user keyed by context.
func (u *Updater) AllWeights(ctx context.Context, userID string) (map[string]int, error) {
	return u.weights.AllWeights(ctx, userID)
}

// Reset deletes all of a user's learned weights. Selection records and
// feedback history are untouched; only the learned bias is cleared.
func (u *Updater) Reset(ctx context.Context, userID string) error {
	if err := u.weights.ResetWeights(ctx, userID); err != nil {
		return fmt.Errorf("reset weights: %w", err)
	}
	u.logger.Info().Str("user_id", userID).Msg("user weights reset")
	return nil
}

func oppositePace(pace string) string {
	if pace == "slow" {
		return "fast"
	}
	return "slow"
}

// oppositeState maps heavy<->light. Escape is neutral and maps to
// itself.
func oppositeState(state string) string {
	switch state {
	case "heavy":
		return "light"
	case "light":
		return "heavy"
	}
	return state
}
