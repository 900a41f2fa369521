// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okhomenko/moodflick/internal/models"
)

// UpsertItem inserts or replaces a catalog item.
func (s *Store) UpsertItem(ctx context.Context, item models.Item) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (item_id, title, type, tags_json, base_score, source,
			poster_url, vote_average, overview, genres_json, credits_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			tags_json = excluded.tags_json,
			base_score = excluded.base_score,
			source = excluded.source,
			poster_url = excluded.poster_url,
			vote_average = excluded.vote_average,
			overview = excluded.overview,
			genres_json = excluded.genres_json,
			credits_json = excluded.credits_json`,
		item.ID, item.Title, item.Type, item.TagsJSON, item.BaseScore, item.Source,
		item.PosterURL, item.VoteAverage, item.Overview, item.GenresJSON, item.CreditsJSON, createdAt)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// GetItem returns one catalog item, or (nil, nil) when absent.
func (s *Store) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, title, type, tags_json, base_score, source,
			poster_url, vote_average, overview, genres_json, credits_json, created_at
		FROM items WHERE item_id = ?`, itemID)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListCandidates returns up to limit items of the given type, in random
// order. source filters by catalog source; "" accepts any. Exclusions
// are applied in Go because the excluded set can be large; the query
// oversamples threefold to compensate.
func (s *Store) ListCandidates(ctx context.Context, itemType, source string, exclude map[string]struct{}, limit int) ([]models.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT item_id, title, type, tags_json, base_score, source,
			poster_url, vote_average, overview, genres_json, credits_json, created_at
		FROM items WHERE type = ?`
	args := []any{itemType}
	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, limit*3)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if _, skip := exclude[item.ID]; skip {
			continue
		}
		items = append(items, *item)
		if len(items) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return items, nil
}

// CountItems returns the number of catalog items per source for a type.
func (s *Store) CountItems(ctx context.Context, itemType string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM items WHERE type = ? GROUP BY source`, itemType)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	err := row.Scan(&item.ID, &item.Title, &item.Type, &item.TagsJSON, &item.BaseScore,
		&item.Source, &item.PosterURL, &item.VoteAverage, &item.Overview,
		&item.GenresJSON, &item.CreditsJSON, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
