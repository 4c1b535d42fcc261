package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresConfig carries the connection settings for the shared state
// backend used by multi-instance deployments.
type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// PostgresStore keeps conversation state in Postgres so several bot
// instances can share it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse state DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	if _, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS conversation_state (
            key        TEXT PRIMARY KEY,
            version    BIGINT NOT NULL,
            payload    TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply state schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Load(ctx context.Context, key Key) (Snapshot, error) {
	var (
		version int64
		payload string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT version, payload FROM conversation_state WHERE key = $1`,
		key.String(),
	).Scan(&version, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{State: DefaultState(key.Feature)}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load state for %s: %w", key, err)
	}

	var state ConversationState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return Snapshot{State: DefaultState(key.Feature)}, nil
	}
	return Snapshot{State: state, Version: version}, nil
}

func (s *PostgresStore) Save(ctx context.Context, key Key, snap Snapshot) (Snapshot, error) {
	payload, err := json.Marshal(snap.State)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode state for %s: %w", key, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int64
	err = tx.QueryRow(ctx,
		`SELECT version FROM conversation_state WHERE key = $1 FOR UPDATE`,
		key.String(),
	).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("failed to read state version for %s: %w", key, err)
	}
	if current != snap.Version {
		return Snapshot{}, ErrStaleWrite
	}

	snap.Version++
	_, err = tx.Exec(ctx, `
        INSERT INTO conversation_state (key, version, payload, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (key) DO UPDATE
        SET version = EXCLUDED.version, payload = EXCLUDED.payload, updated_at = NOW()
    `, key.String(), snap.Version, string(payload))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to save state for %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit state for %s: %w", key, err)
	}
	return snap, nil
}

func (s *PostgresStore) Reset(ctx context.Context, key Key) (Snapshot, error) {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_state WHERE key = $1`, key.String())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to reset state for %s: %w", key, err)
	}
	return Snapshot{State: DefaultState(key.Feature)}, nil
}
