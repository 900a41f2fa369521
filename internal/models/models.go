// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package models defines the domain types shared between the
// recommendation engine, the learning layer, and storage.
package models

import "time"

// Item formats.
const (
	FormatMovie  = "movie"
	FormatSeries = "series"
)

// Catalog item sources.
const (
	SourceCurated = "curated"
	SourceTMDB    = "tmdb"
)

// Recommendation modes.
const (
	ModeNormal      = "normal"
	ModeAnother     = "another"
	ModeMissRecover = "miss_recover"
)

// Feedback actions.
const (
	ActionHit        = "hit"
	ActionMiss       = "miss"
	ActionAnother    = "another"
	ActionFavorite   = "favorite"
	ActionShare      = "share"
	ActionSilentDrop = "silent_drop"
)

// Miss reasons.
const (
	ReasonTooSlow   = "tooslow"
	ReasonTooHeavy  = "tooheavy"
	ReasonNotMyVibe = "notvibe"
)

// Item is a catalog entry eligible for recommendation.
//
// TagsJSON holds the raw semantic tag blob written by the tagging
// pipeline; it may be empty for items still pending tagging. The
// scoring path parses it through tags.ParseTags and tolerates any
// malformed shape.
type Item struct {
	// ID is the unique catalog item identifier.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Type is the item format (movie, series).
	Type string `json:"type"`

	// TagsJSON is the raw semantic tag record (pace, mood, tone, intensity).
	TagsJSON string `json:"tags_json,omitempty"`

	// BaseScore is the pre-computed quality score.
	BaseScore float64 `json:"base_score"`

	// Source identifies where the item came from (curated, tmdb).
	Source string `json:"source"`

	// PosterURL is an optional poster image URL, passed through to callers.
	PosterURL string `json:"poster_url,omitempty"`

	// VoteAverage is the external rating (0-10), passed through to callers.
	VoteAverage float64 `json:"vote_average,omitempty"`

	// Overview is the description text, used only for hint matching.
	Overview string `json:"overview,omitempty"`

	// GenresJSON is the raw genre-name list, used only for hint matching.
	GenresJSON string `json:"genres_json,omitempty"`

	// CreditsJSON is the raw director/actor record, used only for hint matching.
	CreditsJSON string `json:"credits_json,omitempty"`

	// CreatedAt is when the item entered the catalog.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DeltaInfo records which dimension a "show me another" request changed.
type DeltaInfo struct {
	// PaceFlipped is set when the effective pace was inverted.
	PaceFlipped bool `json:"pace_flipped,omitempty"`

	// ToneShifted is set when variety comes from re-scoring rather
	// than a changed answer dimension.
	ToneShifted bool `json:"tone_shifted,omitempty"`
}

// SelectionContext is the immutable context snapshot stored with a
// selection. Feedback recomputes the weight context key from this
// snapshot, never from caller-supplied answers.
type SelectionContext struct {
	// State is the effective user state (light, heavy, escape).
	State string `json:"state"`

	// Pace is the effective pace answer (slow, fast).
	Pace string `json:"pace"`

	// Format is the effective format answer (movie, series).
	Format string `json:"format"`

	// Mode is the recommendation mode the selection was made under.
	Mode string `json:"mode"`

	// EpsilonUsed is the exploration probability applied.
	EpsilonUsed float64 `json:"epsilon_used"`

	// CandidateCount is how many scored candidates were considered.
	CandidateCount int `json:"candidate_count"`

	// SelectedScore is the total score of the chosen item.
	SelectedScore float64 `json:"selected_score"`

	// ToneBucket is the coarse tone classification of the chosen item.
	ToneBucket string `json:"tone_bucket,omitempty"`

	// Hint is the free-text hint, if one was given.
	Hint string `json:"hint,omitempty"`

	// Delta records the "another" state transition, if one applied.
	Delta *DeltaInfo `json:"delta,omitempty"`
}

// Selection is an append-only record of one recommendation shown to a
// user. It is never mutated after creation; feedback references it by ID.
type Selection struct {
	// ID is the selection record identifier.
	ID string `json:"id"`

	// UserID is the user the item was shown to.
	UserID string `json:"user_id"`

	// ItemID is the recommended catalog item.
	ItemID string `json:"item_id"`

	// Context is the snapshot taken at selection time.
	Context SelectionContext `json:"context"`

	// CreatedAt is when the selection was committed.
	CreatedAt time.Time `json:"created_at"`
}

// Event is a structured audit record. Event emission must never fail
// the operation that produced it.
type Event struct {
	// Name identifies the event kind (rec_created, weights_updated, ...).
	Name string `json:"name"`

	// UserID is the acting user, if any.
	UserID string `json:"user_id,omitempty"`

	// SelectionID references the related selection record, if any.
	SelectionID string `json:"selection_id,omitempty"`

	// Payload carries event-specific fields.
	Payload map[string]any `json:"payload,omitempty"`
}
