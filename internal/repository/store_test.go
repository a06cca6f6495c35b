package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testSnapshot(t *testing.T, id string) *game.Snapshot {
	t.Helper()
	deck := []*card.Card{
		card.New(card.Template{Key: "stand", Name: "Stand", Type: card.TypeProduct, Cost: 1, Inventory: 3, RevenuePerSale: 500}),
		card.New(card.Template{Key: "seed", Name: "Seed", Type: card.TypeAction, Cost: 0, Effect: "seed_funding"}),
	}
	gs, err := game.NewGameState(id, game.DefaultRules(), []game.Seat{
		{ID: "alice", Deck: deck},
		{ID: "bob"},
	})
	require.NoError(t, err)
	gs.Players["alice"].Capital = 7
	snap, err := game.NewSnapshot(gs)
	require.NoError(t, err)
	return snap
}

// exerciseStore runs the shared contract against any Store.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	first := testSnapshot(t, "game-1")
	second := testSnapshot(t, "game-2")
	second.GameOver = true
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, first.Checksum, loaded.Checksum)
	assert.Equal(t, first.Turn, loaded.Turn)

	gs, err := loaded.Restore()
	require.NoError(t, err)
	assert.Equal(t, int64(7), gs.Players["alice"].Capital)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, active, "game-1")
	assert.NotContains(t, active, "game-2")

	// Upsert replaces the row.
	gs.Turn = 4
	updated, err := game.NewSnapshot(gs)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, updated))
	loaded, err = store.Load(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Turn)
	assert.Equal(t, updated.Checksum, loaded.Checksum)

	require.NoError(t, store.Delete(ctx, "game-1"))
	_, err = store.Load(ctx, "game-1")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	require.NoError(t, store.Delete(ctx, "game-1"))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.db")
	store, err := OpenSQLite(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ", nil)
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("LEDGERLINE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGERLINE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, config.PostgresConfig{URL: url, MaxConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Delete(ctx, "game-2")
		_ = store.Close()
	})

	exerciseStore(t, store)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = Open(ctx, config.StorageConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}
