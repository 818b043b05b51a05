// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history persists the conversation log: one immutable turn per
// completed exchange, scoped by user, append-only except for bulk clears.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrStorage marks conversation store failures so callers can distinguish
// them from completion-path errors, which are never surfaced.
var ErrStorage = errors.New("conversation storage failure")

// Turn is one user message and its generated response. Immutable once
// written; removed only by Clear.
type Turn struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store handles conversation turns in a SQLite database
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the conversation database at dbPath
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorage, err)
	}

	store := &Store{db: db, logger: logger}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize schema: %v", ErrStorage, err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// initSchema creates the turns table if it doesn't exist
func (s *Store) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS chat_turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(user_id, created_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// Append stores a completed exchange with a server-assigned timestamp
func (s *Store) Append(ctx context.Context, userID int64, message, response string) error {
	query := `
		INSERT INTO chat_turns (user_id, message, response, created_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%d %H:%M:%f', 'now'))
	`

	if _, err := s.db.ExecContext(ctx, query, userID, message, response); err != nil {
		return fmt.Errorf("%w: failed to append turn: %v", ErrStorage, err)
	}

	s.logger.Debug("Appended conversation turn",
		zap.Int64("user_id", userID),
		zap.Int("message_len", len(message)),
		zap.Int("response_len", len(response)))

	return nil
}

// Recent returns up to limit turns for the user in ascending chronological
// order. The query fetches newest-first to honor the recency window, then
// reverses so callers always see oldest-first.
func (s *Store) Recent(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	if limit <= 0 {
		return []Turn{}, nil
	}

	query := `
		SELECT id, user_id, message, response, created_at
		FROM chat_turns
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query turns: %v", ErrStorage, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		var created string
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.Message, &turn.Response, &created); err != nil {
			return nil, fmt.Errorf("%w: failed to scan turn: %v", ErrStorage, err)
		}
		turn.CreatedAt = parseTimestamp(created)
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating turns: %v", ErrStorage, err)
	}

	// Reverse to ascending order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// Clear deletes all turns for a user. Clearing an empty history succeeds.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: failed to clear history: %v", ErrStorage, err)
	}

	s.logger.Info("Cleared conversation history", zap.Int64("user_id", userID))
	return nil
}

// timestampLayouts are the formats turn timestamps are stored in
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseTimestamp parses a stored timestamp, returning the zero time on failure
func parseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
