package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id    TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	turn       INTEGER NOT NULL,
	game_over  INTEGER NOT NULL DEFAULT 0,
	checksum   TEXT NOT NULL,
	state      BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS game_snapshots_active_idx ON game_snapshots (game_over, updated_at);
`

// SQLiteStore keeps snapshots in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens the database at path, creating it and its schema if needed.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("sqlite snapshot store opened", zap.String("path", cleanPath))
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Save upserts a snapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap *game.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_snapshots (game_id, version, turn, game_over, checksum, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO UPDATE SET
			version = excluded.version,
			turn = excluded.turn,
			game_over = excluded.game_over,
			checksum = excluded.checksum,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		snap.GameID, snap.Version, snap.Turn, boolToInt(snap.GameOver), snap.Checksum, []byte(snap.State),
		snap.CreatedAt.UTC().UnixMilli(), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the latest snapshot of a game.
func (s *SQLiteStore) Load(ctx context.Context, gameID string) (*game.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT game_id, version, turn, game_over, checksum, state, created_at
		FROM game_snapshots
		WHERE game_id = ?`,
		gameID,
	)

	var snap game.Snapshot
	var gameOver int64
	var state []byte
	var createdAt int64
	if err := row.Scan(&snap.GameID, &snap.Version, &snap.Turn, &gameOver, &snap.Checksum, &state, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(gameID)
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap.GameOver = gameOver != 0
	snap.State = state
	snap.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &snap, nil
}

// Delete removes a game's snapshot.
func (s *SQLiteStore) Delete(ctx context.Context, gameID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM game_snapshots WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ListActive returns unfinished games, most recently updated first.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id FROM game_snapshots
		WHERE game_over = 0
		ORDER BY updated_at DESC, game_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
