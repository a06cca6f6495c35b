// Package repository persists game snapshots.
package repository

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"go.uber.org/zap"
)

// Store is a snapshot store with a lifecycle.
type Store interface {
	game.SnapshotStore
	// ListActive returns the IDs of stored games that have not ended.
	ListActive(ctx context.Context) ([]string, error)
	Close() error
}

// Open creates the store selected by cfg. The memory driver returns a nil
// store: games then live only in the manager.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return nil, nil
	case config.DriverSQLite:
		store, err := OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := NewPostgresStore(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func notFound(gameID string) error {
	return fmt.Errorf("snapshot %w: %s", game.ErrGameNotFound, gameID)
}
