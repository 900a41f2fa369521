// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package storage

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/okhomenko/moodflick/internal/models"
)

// AddFavorite marks an item as favorited. Idempotent.
func (s *Store) AddFavorite(ctx context.Context, userID, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (user_id, item_id, created_at)
		VALUES (?, ?, ?)`, userID, itemID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// AddDismissal marks an item as permanently dismissed. Idempotent.
func (s *Store) AddDismissal(ctx context.Context, userID, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO dismissals (user_id, item_id, created_at)
		VALUES (?, ?, ?)`, userID, itemID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("add dismissal: %w", err)
	}
	return nil
}

// ListFavoriteItemIDs returns the user's favorited item ids.
func (s *Store) ListFavoriteItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	return s.listItemIDs(ctx, "favorites", userID)
}

// ListDismissedItemIDs returns the user's dismissed item ids.
func (s *Store) ListDismissedItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	return s.listItemIDs(ctx, "dismissals", userID)
}

func (s *Store) listItemIDs(ctx context.Context, table, userID string) (map[string]struct{}, error) {
	// table is one of two compile-time constants, never user input.
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT item_id FROM %s WHERE user_id = ?", table), userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s item id: %w", table, err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// LogEvent appends one audit event.
func (s *Store) LogEvent(ctx context.Context, ev models.Event) error {
	payload := ""
	if ev.Payload != nil {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		payload = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (event_name, user_id, selection_id, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.Name, ev.UserID, ev.SelectionID, payload, s.now().UTC())
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// CountEvents returns how many events with the given name exist.
// Used by tests and the ops surface.
func (s *Store) CountEvents(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE event_name = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
