package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"go.uber.org/zap"
)

// SnapshotStore persists game snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, gameID string) (*Snapshot, error)
	Delete(ctx context.Context, gameID string) error
}

type managedGame struct {
	mu    sync.Mutex
	state *GameState
}

// Manager owns the live games. Moves on one game are serialized; different
// games proceed independently.
type Manager struct {
	logger  *zap.Logger
	engine  *Engine
	bus     *rules.EventBus
	store   SnapshotStore
	journal *JournalRecorder
	rules   RulesConfig

	mu    sync.RWMutex
	games map[string]*managedGame
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStore persists a snapshot after every accepted move.
func WithStore(store SnapshotStore) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// WithJournal records every move attempt.
func WithJournal(j *JournalRecorder) ManagerOption {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithRules sets the rules used by Create.
func WithRules(cfg RulesConfig) ManagerOption {
	return func(m *Manager) {
		m.rules = cfg.normalized()
	}
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		for _, opt := range opts {
			opt(m.engine)
		}
	}
}

// NewManager creates a manager with its own engine and event bus.
func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := rules.NewEventBus()
	m := &Manager{
		logger: logger,
		engine: NewEngine(logger.Named("engine"), WithEventBus(bus)),
		bus:    bus,
		rules:  DefaultRules(),
		games:  make(map[string]*managedGame),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the bus every game publishes to. Listeners run while the
// game is locked and must not call back into the manager synchronously.
func (m *Manager) Events() *rules.EventBus {
	return m.bus
}

// Engine returns the shared engine.
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Create starts a new game and returns its ID.
func (m *Manager) Create(ctx context.Context, seats []Seat) (string, error) {
	id := uuid.NewString()
	gs, err := m.engine.NewGame(id, m.rules, seats)
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	m.mu.Lock()
	m.games[id] = &managedGame{state: gs}
	m.mu.Unlock()

	m.persist(ctx, gs)
	return id, nil
}

func (m *Manager) game(gameID string) (*managedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// Apply applies a move and returns the mover's view afterwards.
func (m *Manager) Apply(ctx context.Context, gameID string, move Move) (GameView, error) {
	g, err := m.game(gameID)
	if err != nil {
		return GameView{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	moveErr := m.engine.Apply(g.state, move)
	if m.journal != nil {
		m.journal.Record(g.state, move, moveErr)
	}
	if moveErr != nil {
		m.logger.Debug("move rejected",
			zap.String("game_id", gameID),
			zap.String("player_id", move.PlayerID),
			zap.String("move", string(move.Type)),
			zap.Error(moveErr),
		)
		return GameView{}, moveErr
	}

	m.persist(ctx, g.state)
	return m.engine.Project(g.state, move.PlayerID), nil
}

// View projects a game for a viewer. An empty viewerID is a spectator.
func (m *Manager) View(gameID, viewerID string) (GameView, error) {
	g, err := m.game(gameID)
	if err != nil {
		return GameView{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.state.Players[viewerID]; viewerID != "" && !ok {
		return GameView{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, viewerID)
	}
	return m.engine.Project(g.state, viewerID), nil
}

// Snapshot serializes a live game.
func (m *Manager) Snapshot(gameID string) (*Snapshot, error) {
	g, err := m.game(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return NewSnapshot(g.state)
}

// Journal returns the journaled moves of a game recorded after since. The
// zero ULID returns the whole log. Removed games are read from disk.
func (m *Manager) Journal(gameID string, since ulid.ULID) ([]JournalEntry, error) {
	if m.journal == nil {
		return nil, ErrJournalDisabled
	}
	if _, err := m.game(gameID); err == nil {
		return m.journal.Journal(gameID).Since(since), nil
	}
	entries, err := m.journal.Entries(gameID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return entries, nil
}

// Restore loads a game from the store into memory, replacing any live copy.
func (m *Manager) Restore(ctx context.Context, gameID string) error {
	if m.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	snap, err := m.store.Load(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	gs, err := snap.Restore()
	if err != nil {
		return err
	}
	m.checkRoundtrip(gs)

	m.mu.Lock()
	m.games[gameID] = &managedGame{state: gs}
	m.mu.Unlock()

	m.logger.Info("restored game",
		zap.String("game_id", gameID),
		zap.Int("turn", gs.Turn),
		zap.String("checksum", snap.Checksum),
	)
	return nil
}

// Remove drops a game from memory and from the store.
func (m *Manager) Remove(ctx context.Context, gameID string) error {
	m.mu.Lock()
	_, ok := m.games[gameID]
	delete(m.games, gameID)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	if m.journal != nil {
		if err := m.journal.Save(gameID); err != nil {
			m.logger.Warn("failed to save journal", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, gameID); err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
	}
	return nil
}

// GameIDs lists the live games.
func (m *Manager) GameIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// persist saves a snapshot. Storage failures are logged, not returned: the
// in-memory game stays authoritative.
func (m *Manager) persist(ctx context.Context, gs *GameState) {
	if m.store == nil {
		return
	}
	snap, err := NewSnapshot(gs)
	if err != nil {
		m.logger.Error("failed to snapshot game", zap.String("game_id", gs.ID), zap.Error(err))
		return
	}
	if err := m.store.Save(ctx, snap); err != nil {
		m.logger.Warn("failed to persist snapshot", zap.String("game_id", gs.ID), zap.Error(err))
	}
	m.checkRoundtrip(gs)
}

// checkRoundtrip verifies at debug level that the state survives a snapshot.
func (m *Manager) checkRoundtrip(gs *GameState) {
	if !m.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	if err := ValidateSerializationRoundtrip(gs); err != nil {
		m.logger.Warn("snapshot roundtrip mismatch", zap.String("game_id", gs.ID), zap.Error(err))
	}
}
