// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/spotcore/internal/model"
	"github.com/jeranaias/spotcore/internal/protocol"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
// Use errors.Is(err, ErrTranscriptNotFound) to check for this error.
var ErrTranscriptNotFound = &TranscriptError{Message: "transcript not found"}

// TranscriptError represents a transcript storage error.
type TranscriptError struct {
	Message string
}

func (e *TranscriptError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing transcript errors.
func (e *TranscriptError) Is(target error) bool {
	t, ok := target.(*TranscriptError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id            TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	origin        TEXT NOT NULL,
	kind          TEXT NOT NULL,
	tool          TEXT NOT NULL DEFAULT '',
	text          TEXT NOT NULL DEFAULT '',
	payload       TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_transcript
	ON messages(transcript_id, seq);
`

// Message kinds in the payload column.
const (
	kindNone    = "none"    // no payload (user and system messages)
	kindPlain   = "plain"   // PlainText
	kindChat    = "chat"    // bare ChatAnswer
	kindTool    = "tool"    // registered tool variant
	kindUnknown = "unknown" // UnrecognizedTool pass-through
)

// =============================================================================
// TRANSCRIPT META
// =============================================================================

// TranscriptMeta contains metadata for listing transcripts.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore persists conversation logs in SQLite.
//
// Safe for concurrent use; the connection pool is capped at one open
// connection because SQLite supports a single writer.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore opens (or creates) the transcript database at path.
func NewTranscriptStore(path string) (*TranscriptStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
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
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &TranscriptStore{db: db}, nil
}

// Close releases the database handle.
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists a conversation log, replacing any previous copy with the
// same ID. The whole write is one transaction, so a crash mid-save
// leaves the previous copy intact.
func (s *TranscriptStore) Save(log *model.Log) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO transcripts (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		log.ID(), log.Title(), log.CreatedAt().UnixMilli(), log.UpdatedAt().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert transcript: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE transcript_id = ?`, log.ID()); err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, transcript_id, seq, origin, kind, tool, text, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, msg := range log.Snapshot() {
		kind, tool, payload, err := encodePayload(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
		_, err = stmt.Exec(msg.ID, log.ID(), seq, string(msg.Origin), kind, tool, msg.Text, payload, msg.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// encodePayload flattens a message's payload for storage.
func encodePayload(msg *model.Message) (kind, tool, payload string, err error) {
	switch p := msg.Payload.(type) {
	case nil:
		return kindNone, "", "", nil
	case *protocol.PlainText:
		return kindPlain, "", "", nil
	case *protocol.UnrecognizedTool:
		return kindUnknown, p.Name, string(p.Raw), nil
	case *protocol.ChatAnswer:
		data, err := json.Marshal(p)
		if err != nil {
			return "", "", "", err
		}
		return kindChat, "", string(data), nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return "", "", "", err
		}
		return kindTool, p.Tool(), string(data), nil
	}
}

// decodePayload rebuilds a typed payload from its stored form.
func decodePayload(kind, tool, text, payload string) (protocol.Payload, error) {
	switch kind {
	case kindNone:
		return nil, nil
	case kindPlain:
		return &protocol.PlainText{Text: text}, nil
	case kindUnknown:
		return &protocol.UnrecognizedTool{Name: tool, Raw: json.RawMessage(payload)}, nil
	case kindChat:
		return protocol.BareChat.Decode([]byte(payload))
	case kindTool:
		schema, ok := protocol.Lookup(tool)
		if !ok {
			// The registry shrank since this row was written. Degrade
			// to the pass-through variant rather than failing the load.
			return &protocol.UnrecognizedTool{Name: tool, Raw: json.RawMessage(payload)}, nil
		}
		return schema.Decode([]byte(payload))
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
}

// =============================================================================
// LOAD
// =============================================================================

// StoredTranscript is a loaded transcript: its metadata plus messages in
// append order.
type StoredTranscript struct {
	Meta     TranscriptMeta
	Messages []*model.Message
}

// Load reads one transcript by ID.
func (s *TranscriptStore) Load(id string) (*StoredTranscript, error) {
	row := s.db.QueryRow(`SELECT id, title, created_at, updated_at FROM transcripts WHERE id = ?`, id)

	var meta TranscriptMeta
	var created, updated int64
	if err := row.Scan(&meta.ID, &meta.Title, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	meta.CreatedAt = time.UnixMilli(created)
	meta.UpdatedAt = time.UnixMilli(updated)

	rows, err := s.db.Query(`
		SELECT id, origin, kind, tool, text, payload, created_at
		FROM messages WHERE transcript_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var msgID, origin, kind, tool, text, payload string
		var ts int64
		if err := rows.Scan(&msgID, &origin, &kind, &tool, &text, &payload, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		decoded, err := decodePayload(kind, tool, text, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msgID, err)
		}

		messages = append(messages, &model.Message{
			ID:        msgID,
			Origin:    model.Origin(origin),
			Timestamp: time.UnixMilli(ts),
			Text:      text,
			Payload:   decoded,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	meta.MessageCount = len(messages)
	return &StoredTranscript{Meta: meta, Messages: messages}, nil
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

// List returns metadata for all transcripts, most recently updated first.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.created_at, t.updated_at, COUNT(m.id)
		FROM transcripts t
		LEFT JOIN messages m ON m.transcript_id = t.id
		GROUP BY t.id
		ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	return scanMetaRows(rows)
}

// Search returns transcripts whose title or message text contains query,
// case-insensitively, most recently updated first.
func (s *TranscriptStore) Search(query string) ([]TranscriptMeta, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM messages WHERE transcript_id = t.id)
		FROM transcripts t
		WHERE t.id IN (
			SELECT DISTINCT transcript_id FROM messages WHERE text LIKE ?
		) OR t.title LIKE ?
		ORDER BY t.updated_at DESC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search transcripts: %w", err)
	}
	defer rows.Close()

	return scanMetaRows(rows)
}

func scanMetaRows(rows *sql.Rows) ([]TranscriptMeta, error) {
	var metas []TranscriptMeta
	for rows.Next() {
		var meta TranscriptMeta
		var created, updated int64
		if err := rows.Scan(&meta.ID, &meta.Title, &created, &updated, &meta.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		meta.CreatedAt = time.UnixMilli(created)
		meta.UpdatedAt = time.UnixMilli(updated)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// =============================================================================
// DELETE / CLEAR
// =============================================================================

// Delete removes one transcript and its messages.
func (s *TranscriptStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Clear removes all transcripts.
func (s *TranscriptStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM transcripts`); err != nil {
		return fmt.Errorf("failed to clear transcripts: %w", err)
	}
	return nil
}
