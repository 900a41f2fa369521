// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Weight returns the user's accumulated weight for a context key, zero
// when no row exists.
func (s *Store) Weight(ctx context.Context, userID, contextKey string) (int, error) {
	var w int
	err := s.db.QueryRowContext(ctx,
		`SELECT weight FROM weights WHERE user_id = ? AND context_key = ?`,
		userID, contextKey).Scan(&w)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get weight: %w", err)
	}
	return w, nil
}

// AllWeights returns every learned weight for a user keyed by context.
func (s *Store) AllWeights(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT context_key, weight FROM weights WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var w int
		if err := rows.Scan(&key, &w); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		out[key] = w
	}
	return out, rows.Err()
}

// AddWeightDelta atomically adds delta to the user's weight for a
// context key, creating the row at delta when absent. Concurrent
// deltas commute; none is lost.
func (s *Store) AddWeightDelta(ctx context.Context, userID, contextKey string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weights (user_id, context_key, weight, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, context_key) DO UPDATE SET
			weight = weight + excluded.weight,
			updated_at = excluded.updated_at`,
		userID, contextKey, delta, s.now().UTC())
	if err != nil {
		return fmt.Errorf("add weight delta: %w", err)
	}
	return nil
}

// ResetWeights deletes all learned weights for a user.
func (s *Store) ResetWeights(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM weights WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("reset weights: %w", err)
	}
	return nil
}
