// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package storage provides SQLite persistence for the catalog,
// selection history, user preferences, learned weights, and the audit
// event log.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed persistence layer. Safe for concurrent
// use; database/sql pools connections and every write is a single
// statement or transaction.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same
		// in-memory database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
		now:    time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		last_seen  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		item_id      TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		type         TEXT NOT NULL,
		tags_json    TEXT NOT NULL DEFAULT '',
		base_score   REAL NOT NULL DEFAULT 0,
		source       TEXT NOT NULL,
		poster_url   TEXT NOT NULL DEFAULT '',
		vote_average REAL NOT NULL DEFAULT 0,
		overview     TEXT NOT NULL DEFAULT '',
		genres_json  TEXT NOT NULL DEFAULT '',
		credits_json TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_type_source ON items(type, source);

	CREATE TABLE IF NOT EXISTS selections (
		selection_id TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		item_id      TEXT NOT NULL,
		context_json TEXT NOT NULL,
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_selections_user_created ON selections(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS favorites (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS dismissals (
		user_id    TEXT NOT NULL,
		item_id    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS weights (
		user_id     TEXT NOT NULL,
		context_key TEXT NOT NULL,
		weight      INTEGER NOT NULL DEFAULT 0,
		updated_at  DATETIME NOT NULL,
		PRIMARY KEY (user_id, context_key)
	);

	CREATE TABLE IF NOT EXISTS events (
		event_id     INTEGER PRIMARY KEY AUTOINCREMENT,
		event_name   TEXT NOT NULL,
		user_id      TEXT NOT NULL DEFAULT '',
		selection_id TEXT NOT NULL DEFAULT '',
		payload_json TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_name_created ON events(event_name, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// EnsureUser creates the user row if absent and bumps last_seen.
func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, created_at, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_seen = excluded.last_seen`,
		userID, now, now)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
