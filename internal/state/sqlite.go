package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps conversation state in a local SQLite file, the bot's
// equivalent of per-device storage.
type SQLiteStore struct {
	conn *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply state schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, key Key) (Snapshot, error) {
	var (
		version int64
		payload string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT version, payload FROM conversation_state WHERE key = ?`,
		key.String(),
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{State: DefaultState(key.Feature)}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load state for %s: %w", key, err)
	}

	var state ConversationState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		// Corrupt entries count as no saved state.
		return Snapshot{State: DefaultState(key.Feature)}, nil
	}
	return Snapshot{State: state, Version: version}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key Key, snap Snapshot) (Snapshot, error) {
	payload, err := json.Marshal(snap.State)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode state for %s: %w", key, err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM conversation_state WHERE key = ?`, key.String(),
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("failed to read state version for %s: %w", key, err)
	}
	if current != snap.Version {
		return Snapshot{}, ErrStaleWrite
	}

	snap.Version++
	_, err = tx.ExecContext(ctx, `
        INSERT INTO conversation_state (key, version, payload, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE
        SET version = excluded.version, payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
    `, key.String(), snap.Version, string(payload))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to save state for %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit state for %s: %w", key, err)
	}
	return snap, nil
}

func (s *SQLiteStore) Reset(ctx context.Context, key Key) (Snapshot, error) {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM conversation_state WHERE key = ?`, key.String())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to reset state for %s: %w", key, err)
	}
	return Snapshot{State: DefaultState(key.Feature)}, nil
}
