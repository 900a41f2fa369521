// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package recommend

import "fmt"

// Config controls candidate selection and exploration.
type Config struct {
	// Epsilon is the exploration probability: with probability Epsilon
	// the recommendation is drawn uniformly from the top TopK candidates
	// instead of taking the best score.
	Epsilon float64 `koanf:"epsilon" json:"epsilon"`

	// MaxCandidates caps how many catalog items are fetched per request.
	MaxCandidates int `koanf:"max_candidates" json:"max_candidates"`

	// AntiRepeatDays is the trailing window within which shown items are
	// excluded from re-selection.
	AntiRepeatDays int `koanf:"anti_repeat_days" json:"anti_repeat_days"`

	// PreferCurated fetches curated items first and supplements with
	// TMDB items only when the curated pool is thin.
	PreferCurated bool `koanf:"prefer_curated" json:"prefer_curated"`

	// RequireTags drops untagged items entirely instead of scoring them
	// neutrally.
	RequireTags bool `koanf:"require_tags" json:"require_tags"`

	// TopK bounds the exploration pool.
	TopK int `koanf:"top_k" json:"top_k"`

	// MinCuratedPool is the curated count below which TMDB items
	// supplement the candidate set.
	MinCuratedPool int `koanf:"min_curated_pool" json:"min_curated_pool"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Epsilon:        0.30,
		MaxCandidates:  500,
		AntiRepeatDays: 90,
		PreferCurated:  true,
		RequireTags:    false,
		TopK:           20,
		MinCuratedPool: 5,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1], got %v", c.Epsilon)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.AntiRepeatDays <= 0 {
		return fmt.Errorf("anti_repeat_days must be positive, got %d", c.AntiRepeatDays)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MinCuratedPool < 0 {
		return fmt.Errorf("min_curated_pool must not be negative, got %d", c.MinCuratedPool)
	}
	return nil
}
