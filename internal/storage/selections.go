// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okhomenko/moodflick/internal/models"
)

// CreateSelection persists a selection record with its context
// snapshot.
func (s *Store) CreateSelection(ctx context.Context, sel *models.Selection) error {
	contextJSON, err := json.Marshal(sel.Context)
	if err != nil {
		return fmt.Errorf("marshal selection context: %w", err)
	}

	createdAt := sel.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
		sel.CreatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO selections (selection_id, user_id, item_id, context_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sel.ID, sel.UserID, sel.ItemID, string(contextJSON), createdAt)
	if err != nil {
		return fmt.Errorf("create selection: %w", err)
	}
	return nil
}

// GetSelection returns one selection by id, or (nil, nil) when absent.
func (s *Store) GetSelection(ctx context.Context, id string) (*models.Selection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT selection_id, user_id, item_id, context_json, created_at
		FROM selections WHERE selection_id = ?`, id)

	sel, err := s.scanSelection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get selection: %w", err)
	}
	return sel, nil
}

// GetLastSelection returns the user's most recent selection, or
// (nil, nil) when they have none.
func (s *Store) GetLastSelection(ctx context.Context, userID string) (*models.Selection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT selection_id, user_id, item_id, context_json, created_at
		FROM selections WHERE user_id = ?
		ORDER BY created_at DESC, selection_id DESC LIMIT 1`, userID)

	sel, err := s.scanSelection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last selection: %w", err)
	}
	return sel, nil
}

// ListRecentItemIDs returns the ids of items recommended to the user
// within the trailing window.
func (s *Store) ListRecentItemIDs(ctx context.Context, userID string, windowDays int) (map[string]struct{}, error) {
	cutoff := s.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT item_id FROM selections
		WHERE user_id = ? AND created_at >= ?`, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list recent item ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent item id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *Store) scanSelection(row rowScanner) (*models.Selection, error) {
	var (
		sel         models.Selection
		contextJSON string
	)
	if err := row.Scan(&sel.ID, &sel.UserID, &sel.ItemID, &contextJSON, &sel.CreatedAt); err != nil {
		return nil, err
	}
	// A corrupt context snapshot degrades to an empty one; downstream
	// the answer defaults fill in the missing dimensions.
	if err := json.Unmarshal([]byte(contextJSON), &sel.Context); err != nil {
		s.logger.Warn().Err(err).
			Str("selection_id", sel.ID).
			Msg("malformed selection context, treating as empty")
		sel.Context = models.SelectionContext{}
	}
	return &sel, nil
}
