// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package antirepeat computes the set of catalog items a user must not
// be shown again: recently recommended items (unless favorited),
// permanently dismissed items, and caller-supplied exclusions.
package antirepeat

import (
	"context"
	"fmt"
)

// DefaultWindowDays is the trailing period within which a shown item
// is excluded from re-selection.
const DefaultWindowDays = 90

// SelectionHistory lists items recently recommended to a user.
type SelectionHistory interface {
	ListRecentItemIDs(ctx context.Context, userID string, windowDays int) (map[string]struct{}, error)
}

// Preferences lists a user's favorited and dismissed items.
type Preferences interface {
	ListFavoriteItemIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	ListDismissedItemIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// Policy derives request-scoped exclusion sets. The set is computed
// fresh on every call and never persisted.
type Policy struct {
	history    SelectionHistory
	prefs      Preferences
	windowDays int
}

// NewPolicy creates an exclusion policy. windowDays <= 0 falls back to
// DefaultWindowDays.
func NewPolicy(history SelectionHistory, prefs Preferences, windowDays int) *Policy {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Policy{
		history:    history,
		prefs:      prefs,
		windowDays: windowDays,
	}
}

// ExcludedItemIDs returns the items to exclude for a user:
// (recent − favorites) ∪ dismissed ∪ additional.
//
// Favorited items bypass the anti-repeat window, but a dismissed item
// is never eligible again, even if it is also favorited. windowDays <= 0
// uses the policy default.
func (p *Policy) ExcludedItemIDs(ctx context.Context, userID string, additional map[string]struct{}, windowDays int) (map[string]struct{}, error) {
	if windowDays <= 0 {
		windowDays = p.windowDays
	}

	recent, err := p.history.ListRecentItemIDs(ctx, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list recent item ids: %w", err)
	}

	dismissed, err := p.prefs.ListDismissedItemIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dismissed item ids: %w", err)
	}

	// Common case: nothing recent and nothing dismissed means the
	// favorites lookup can be skipped entirely.
	if len(recent) == 0 && len(dismissed) == 0 {
		return copySet(additional), nil
	}

	favorites, err := p.prefs.ListFavoriteItemIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite item ids: %w", err)
	}

	excluded := make(map[string]struct{}, len(recent)+len(dismissed)+len(additional))
	for id := range recent {
		if _, favorited := favorites[id]; favorited {
			continue
		}
		excluded[id] = struct{}{}
	}
	for id := range dismissed {
		excluded[id] = struct{}{}
	}
	for id := range additional {
		excluded[id] = struct{}{}
	}

	return excluded, nil
}

// IsAllowed reports whether a single item is currently eligible for
// recommendation to the user.
func (p *Policy) IsAllowed(ctx context.Context, userID, itemID string, windowDays int) (bool, error) {
	excluded, err := p.ExcludedItemIDs(ctx, userID, nil, windowDays)
	if err != nil {
		return false, err
	}
	_, found := excluded[itemID]
	return !found, nil
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for id := range in {
		out[id] = struct{}{}
	}
	return out
}
