package game

import (
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJournalRecordAndPlayback(t *testing.T) {
	gs := newTestGame(t)
	j := NewJournal(gs.ID)

	first := j.Record(Move{Type: MoveEndTurn, PlayerID: "alice"}, gs, nil)
	second := j.Record(Move{Type: MovePlayCard, PlayerID: "bob"}, gs, errors.New("not your turn"))

	assert.Equal(t, 2, j.Size())
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "not your turn", second.Error)
	assert.Equal(t, Checksum(gs), first.Checksum)

	all := j.Since(ulid.ULID{})
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	after := j.Since(first.ID)
	require.Len(t, after, 1)
	assert.Equal(t, second.ID, after[0].ID)
	assert.Empty(t, j.Since(second.ID))
}

func TestJournalSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	gs := newTestGame(t)
	jr := NewJournalRecorder(zaptest.NewLogger(t), dir)
	jr.Record(gs, Move{Type: MoveUseHeroAbility, PlayerID: "alice"}, nil)
	jr.Record(gs, Move{Type: MoveEndTurn, PlayerID: "alice"}, nil)

	require.NoError(t, jr.Save(gs.ID))
	assert.Error(t, jr.Save(gs.ID), "journal is dropped after save")

	loaded, err := jr.Load(gs.ID)
	require.NoError(t, err)
	assert.Equal(t, gs.ID, loaded.GameID)
	require.Equal(t, 2, loaded.Size())
	entry := loaded.Entries[1]
	assert.Equal(t, MoveEndTurn, entry.Move.Type)
	assert.Equal(t, 2, entry.Seq)

	entries, err := jr.Entries(gs.ID, loaded.Entries[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestJournalRecorderWithoutDirectory(t *testing.T) {
	jr := NewJournalRecorder(zaptest.NewLogger(t), "")
	_, err := jr.Load("missing")
	assert.Error(t, err)
	_, err = jr.Entries("missing", ulid.ULID{})
	assert.Error(t, err)
}

func TestLoadJournalMissingFile(t *testing.T) {
	_, err := LoadJournalFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}
