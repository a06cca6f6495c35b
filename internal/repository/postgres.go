package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id    TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	turn       INTEGER NOT NULL,
	game_over  BOOLEAN NOT NULL DEFAULT FALSE,
	checksum   TEXT NOT NULL,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS game_snapshots_active_idx ON game_snapshots (game_over, updated_at);
`

// PostgresStore keeps snapshots in a JSONB column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and creates the schema if needed.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Save upserts a snapshot.
func (s *PostgresStore) Save(ctx context.Context, snap *game.Snapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, version, turn, game_over, checksum, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (game_id) DO UPDATE SET
			version = EXCLUDED.version,
			turn = EXCLUDED.turn,
			game_over = EXCLUDED.game_over,
			checksum = EXCLUDED.checksum,
			state = EXCLUDED.state,
			updated_at = now()
	`, snap.GameID, snap.Version, snap.Turn, snap.GameOver, snap.Checksum, []byte(snap.State), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load reads the latest snapshot of a game.
func (s *PostgresStore) Load(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var snap game.Snapshot
	var state []byte
	err := s.pool.QueryRow(ctx, `
		SELECT game_id, version, turn, game_over, checksum, state, created_at
		FROM game_snapshots
		WHERE game_id = $1
	`, gameID).Scan(&snap.GameID, &snap.Version, &snap.Turn, &snap.GameOver, &snap.Checksum, &state, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.State = state
	return &snap, nil
}

// Delete removes a game's snapshot. Deleting a missing game is not an error.
func (s *PostgresStore) Delete(ctx context.Context, gameID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM game_snapshots WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// ListActive returns unfinished games, most recently updated first.
func (s *PostgresStore) ListActive(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id FROM game_snapshots
		WHERE game_over = FALSE
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots: %w", err)
	}
	return ids, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
