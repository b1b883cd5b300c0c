// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records chat usage in a local SQLite database.
//
// One row is written per completed exchange (a user message and the
// chatbot reply). The log backs the `history` command: recent activity
// and per-chatbot totals.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at    TEXT NOT NULL,
	chatbot_name   TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	prompt_preview TEXT NOT NULL,
	duration_ms    INTEGER NOT NULL,
	streamed       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_recorded ON exchanges(recorded_at);
CREATE INDEX IF NOT EXISTS idx_exchanges_chatbot ON exchanges(chatbot_name);
`

// Entry is one recorded exchange.
type Entry struct {
	ID             int64
	RecordedAt     time.Time
	ChatbotName    string
	ConversationID string
	PromptPreview  string
	Duration       time.Duration
	Streamed       bool
}

// Total is the aggregate usage for one chatbot.
type Total struct {
	ChatbotName string
	Exchanges   int
	LastUsed    time.Time
}

// =============================================================================
// LOG
// =============================================================================

// Log is the usage database. Safe for concurrent use; the underlying
// pool is limited to one connection because SQLite allows one writer.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the usage database at path.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one exchange. A zero RecordedAt is filled in with the
// current time.
func (l *Log) Record(e Entry) error {
	when := e.RecordedAt
	if when.IsZero() {
		when = time.Now()
	}
	streamed := 0
	if e.Streamed {
		streamed = 1
	}

	_, err := l.db.Exec(
		`INSERT INTO exchanges (recorded_at, chatbot_name, conversation_id, prompt_preview, duration_ms, streamed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		when.UTC().Format(time.RFC3339Nano),
		e.ChatbotName,
		e.ConversationID,
		e.PromptPreview,
		e.Duration.Milliseconds(),
		streamed,
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// Recent returns up to limit exchanges, newest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.Query(
		`SELECT id, recorded_at, chatbot_name, conversation_id, prompt_preview, duration_ms, streamed
		 FROM exchanges ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			recorded string
			ms       int64
			streamed int
		)
		if err := rows.Scan(&e.ID, &recorded, &e.ChatbotName, &e.ConversationID, &e.PromptPreview, &ms, &streamed); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
			e.RecordedAt = t
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		e.Streamed = streamed != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Totals returns per-chatbot aggregates, most used first.
func (l *Log) Totals() ([]Total, error) {
	rows, err := l.db.Query(
		`SELECT chatbot_name, COUNT(*), MAX(recorded_at)
		 FROM exchanges GROUP BY chatbot_name ORDER BY COUNT(*) DESC, chatbot_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	var totals []Total
	for rows.Next() {
		var (
			t    Total
			last string
		)
		if err := rows.Scan(&t.ChatbotName, &t.Exchanges, &last); err != nil {
			return nil, fmt.Errorf("failed to scan totals row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, last); err == nil {
			t.LastUsed = ts
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Clear removes all recorded exchanges.
func (l *Log) Clear() error {
	if _, err := l.db.Exec(`DELETE FROM exchanges`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
