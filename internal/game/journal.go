package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// JournalEntry records one applied move and the state checksum after it.
type JournalEntry struct {
	ID       ulid.ULID `json:"id"`
	Seq      int       `json:"seq"`
	Move     Move      `json:"move"`
	Checksum string    `json:"checksum"`
	Turn     int       `json:"turn"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Journal is the ordered move log of one game.
type Journal struct {
	GameID  string
	Entries []JournalEntry
	mu      sync.RWMutex
}

// NewJournal creates an empty journal.
func NewJournal(gameID string) *Journal {
	return &Journal{
		GameID:  gameID,
		Entries: make([]JournalEntry, 0),
	}
}

// Record appends an entry for a move. A rejected move is kept with its
// error so the log shows what the client attempted.
func (j *Journal) Record(m Move, gs *GameState, moveErr error) JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := JournalEntry{
		ID:       ulid.Make(),
		Seq:      len(j.Entries) + 1,
		Move:     m,
		Checksum: Checksum(gs),
		Turn:     gs.Turn,
		At:       time.Now().UTC(),
	}
	if moveErr != nil {
		entry.Error = moveErr.Error()
	}
	j.Entries = append(j.Entries, entry)
	return entry
}

// Size returns the number of recorded entries.
func (j *Journal) Size() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.Entries)
}

// Since returns entries strictly after the given ID, for clients catching up.
// The zero ULID returns every entry.
func (j *Journal) Since(id ulid.ULID) []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]JournalEntry, 0)
	for _, entry := range j.Entries {
		if entry.ID.Compare(id) > 0 {
			out = append(out, entry)
		}
	}
	return out
}

// SaveToFile writes the journal as gzipped gob to <directory>/<game>.journal.
func (j *Journal) SaveToFile(directory string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.journal", j.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)
	metadata := journalMetadata{
		GameID:     j.GameID,
		Timestamp:  time.Now(),
		Version:    1,
		EntryCount: len(j.Entries),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range j.Entries {
		if err := encoder.Encode(&j.Entries[i]); err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
	}
	return nil
}

// LoadJournalFromFile reads a journal written by SaveToFile.
func LoadJournalFromFile(directory, gameID string) (*Journal, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.journal", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata journalMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported journal version: %d", metadata.Version)
	}

	journal := NewJournal(metadata.GameID)
	for i := 0; i < metadata.EntryCount; i++ {
		var entry JournalEntry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", i, err)
		}
		journal.Entries = append(journal.Entries, entry)
	}
	return journal, nil
}

type journalMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	EntryCount int
}

// JournalRecorder keeps one journal per game and flushes them to disk.
type JournalRecorder struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	journals map[string]*Journal
	saveDir  string
}

// NewJournalRecorder creates a recorder. An empty saveDir keeps journals in memory only.
func NewJournalRecorder(logger *zap.Logger, saveDir string) *JournalRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalRecorder{
		logger:   logger,
		journals: make(map[string]*Journal),
		saveDir:  saveDir,
	}
}

// Journal returns the journal of a game, creating it on first use.
func (jr *JournalRecorder) Journal(gameID string) *Journal {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	j, ok := jr.journals[gameID]
	if !ok {
		j = NewJournal(gameID)
		jr.journals[gameID] = j
	}
	return j
}

// Entries returns the entries after since, from memory or from the saved
// file once the game has been removed.
func (jr *JournalRecorder) Entries(gameID string, since ulid.ULID) ([]JournalEntry, error) {
	jr.mu.RLock()
	j, ok := jr.journals[gameID]
	jr.mu.RUnlock()
	if !ok {
		loaded, err := jr.Load(gameID)
		if err != nil {
			return nil, err
		}
		j = loaded
	}
	return j.Since(since), nil
}

// Record appends a move to the game's journal.
func (jr *JournalRecorder) Record(gs *GameState, m Move, moveErr error) JournalEntry {
	entry := jr.Journal(gs.ID).Record(m, gs, moveErr)
	jr.logger.Debug("journaled move",
		zap.String("game_id", gs.ID),
		zap.String("entry_id", entry.ID.String()),
		zap.String("move", string(m.Type)),
		zap.Int("seq", entry.Seq),
	)
	return entry
}

// Save flushes a game's journal to disk and drops it from memory.
func (jr *JournalRecorder) Save(gameID string) error {
	jr.mu.Lock()
	j, ok := jr.journals[gameID]
	if !ok {
		jr.mu.Unlock()
		return fmt.Errorf("no journal found for game %s", gameID)
	}
	delete(jr.journals, gameID)
	jr.mu.Unlock()

	if jr.saveDir == "" {
		return nil
	}
	if err := j.SaveToFile(jr.saveDir); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	jr.logger.Info("saved journal to disk",
		zap.String("game_id", gameID),
		zap.Int("entry_count", j.Size()),
		zap.String("directory", jr.saveDir),
	)
	return nil
}

// Load reads a saved journal.
func (jr *JournalRecorder) Load(gameID string) (*Journal, error) {
	if jr.saveDir == "" {
		return nil, fmt.Errorf("no journal directory configured")
	}
	return LoadJournalFromFile(jr.saveDir, gameID)
}
