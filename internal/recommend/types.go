// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package recommend

import (
	"context"

	"github.com/okhomenko/moodflick/internal/models"
	"github.com/okhomenko/moodflick/internal/tags"
)

// CatalogStore lists candidate items from the catalog.
// source is models.SourceCurated, models.SourceTMDB, or "" for any.
type CatalogStore interface {
	ListCandidates(ctx context.Context, itemType, source string, exclude map[string]struct{}, limit int) ([]models.Item, error)
}

// SelectionStore persists selection records.
type SelectionStore interface {
	CreateSelection(ctx context.Context, sel *models.Selection) error
}

// WeightSource resolves a user's learned weight for a context key.
type WeightSource interface {
	Weight(ctx context.Context, userID, contextKey string) (int, error)
}

// Excluder computes the set of item ids the user must not be shown.
type Excluder interface {
	ExcludedItemIDs(ctx context.Context, userID string, additional map[string]struct{}, windowDays int) (map[string]struct{}, error)
}

// EventLogger records structured audit events. Emission failures never
// fail the recommendation.
type EventLogger interface {
	LogEvent(ctx context.Context, ev models.Event) error
}

// HintTranslator converts a Ukrainian free-text hint into English
// keywords for matching against TMDB metadata. Optional; errors are
// fail-open.
type HintTranslator interface {
	TranslateHintKeywords(ctx context.Context, hint string) ([]string, error)
}

// Request carries one recommendation request.
type Request struct {
	// UserID identifies the requesting user.
	UserID string

	// Answers are the user's mood answers plus an optional free-text
	// hint. Hint overrides take priority over button answers.
	Answers tags.Answers

	// Mode is models.ModeNormal, models.ModeAnother, or
	// models.ModeMissRecover.
	Mode string

	// ExcludeItemIDs are request-scoped additional exclusions, typically
	// items already shown in the current session.
	ExcludeItemIDs map[string]struct{}

	// LastContext is the previous selection's context; consulted only in
	// "another" mode to decide which dimension to vary.
	LastContext *models.SelectionContext
}

// SourceMix counts scored candidates by catalog source.
type SourceMix struct {
	Curated int `json:"curated"`
	TMDB    int `json:"tmdb"`
}

// Meta describes how a recommendation was selected.
type Meta struct {
	Mode           string    `json:"mode"`
	EpsilonUsed    float64   `json:"epsilon_used"`
	CandidateCount int       `json:"candidate_count"`
	SourceMix      SourceMix `json:"source_mix"`
	Score          float64   `json:"score"`
}

// Result is a single recommendation with its explanation texts.
type Result struct {
	SelectionID    string  `json:"selection_id"`
	ItemID         string  `json:"item_id"`
	Title          string  `json:"title"`
	Rationale      string  `json:"rationale"`
	WhenToWatch    string  `json:"when_to_watch"`
	HintRationale  string  `json:"hint_rationale,omitempty"`
	PosterURL      string  `json:"poster_url,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	DeltaExplainer string  `json:"delta_explainer,omitempty"`
	Meta           Meta    `json:"meta"`
}

// ScoredCandidate is an item with its computed score components.
type ScoredCandidate struct {
	Item         models.Item
	Tags         *tags.Tags
	Score        float64
	MatchScore   float64
	WeightBonus  float64
	NoveltyBonus float64
	HintBonus    float64
}
