package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ledgerline/ledgerline-server/internal/catalog"
	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	manager *game.Manager
	hub     *Hub
	server  *Server
}

func newFixture(t *testing.T, opts ...game.ManagerOption) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	cat, err := catalog.Default()
	require.NoError(t, err)

	manager := game.NewManager(logger, opts...)
	hub := NewHub(manager, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := New(config.ServerConfig{Mode: gin.TestMode}, manager, cat, hub, logger)
	return &fixture{manager: manager, hub: hub, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func (f *fixture) createGame(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/games", createGameRequest{Players: []seatRequest{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob", Hero: "dealmaker", Deck: "hustle"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp createGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.GameID)
	return resp.GameID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthAndCatalog(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cat catalog.Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	assert.NotEmpty(t, cat.Cards)
	assert.Contains(t, cat.StarterDecks, DefaultDeck)
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	id := f.createGame(t)

	w := f.do(t, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = f.do(t, http.MethodGet, "/api/games/"+id+"/view/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view game.GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "alice", view.CurrentPlayer)
	require.Len(t, view.Players, 2)
	assert.NotEmpty(t, view.Players[0].Hand)
	assert.Empty(t, view.Players[1].Hand, "opponent hand stays hidden")

	w = f.do(t, http.MethodGet, "/api/games/"+id+"/view/mallory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_player", decodeError(t, w).Code)

	w = f.do(t, http.MethodGet, "/api/games/"+id+"/spectate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "end_turn", PlayerID: "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_active_player", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "shuffle", PlayerID: "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_move", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "play_card", PlayerID: "alice", HandIndex: 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_hand_index", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "make_choice", PlayerID: "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_pending_choice", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "END_TURN", PlayerID: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "bob", view.CurrentPlayer)
	assert.Equal(t, 2, view.Turn)

	w = f.do(t, http.MethodDelete, "/api/games/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/games/"+id+"/view/alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "game_not_found", decodeError(t, w).Code)
}

func TestCreateGameRejectsBadSeats(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/games", createGameRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/games", createGameRequest{Players: []seatRequest{{ID: "alice", Hero: "wizard"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_seat", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/games", createGameRequest{Players: []seatRequest{{ID: "alice", Deck: "nope"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{game.ErrGameNotFound, http.StatusNotFound},
		{game.ErrUnknownPlayer, http.StatusNotFound},
		{game.ErrNotActivePlayer, http.StatusConflict},
		{game.ErrAwaitingChoice, http.StatusConflict},
		{game.ErrGameOver, http.StatusConflict},
		{game.ErrHeroAbilityUsed, http.StatusConflict},
		{game.ErrInvalidChoice, http.StatusBadRequest},
		{game.ErrInsufficientCapital, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, errorStatus(tt.err))
		})
	}
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zaptest.NewLogger(t)))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until match returns true or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(WSMessage) bool) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestWebsocketPushesViews(t *testing.T) {
	f := newFixture(t)
	id := f.createGame(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	alice := dial(t, ts, "/api/games/"+id+"/ws?player=alice")
	spectator := dial(t, ts, "/api/games/"+id+"/ws")

	first := readUntil(t, alice, func(m WSMessage) bool { return m.Type == MsgGameView })
	var view game.GameView
	require.NoError(t, json.Unmarshal(first.Payload, &view))
	assert.Equal(t, "alice", view.CurrentPlayer)
	readUntil(t, spectator, func(m WSMessage) bool { return m.Type == MsgGameView })

	payload, err := json.Marshal(moveRequest{Type: "end_turn", PlayerID: "bob"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(WSMessage{Type: MsgMove, Payload: payload}))

	// the connection's player wins over the body
	readUntil(t, spectator, func(m WSMessage) bool {
		if m.Type != MsgGameView {
			return false
		}
		var v game.GameView
		require.NoError(t, json.Unmarshal(m.Payload, &v))
		return v.CurrentPlayer == "bob"
	})

	require.NoError(t, spectator.WriteJSON(WSMessage{Type: MsgMove, Payload: payload}))
	msg := readUntil(t, spectator, func(m WSMessage) bool { return m.Type == MsgError })
	var body errorBody
	require.NoError(t, json.Unmarshal(msg.Payload, &body))
	assert.Equal(t, "spectator", body.Code)
}

func TestWebsocketRejectsUnknownGame(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/games/missing/ws?player=alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOriginChecker(t *testing.T) {
	allowAll := originChecker(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.True(t, allowAll(req))

	strict := originChecker([]string{"http://app.example"})
	assert.False(t, strict(req))
	req.Header.Set("Origin", "http://app.example")
	assert.True(t, strict(req))
}

// recordingStore keeps snapshots in memory and remembers the context error
// seen by every save.
type recordingStore struct {
	mu      sync.Mutex
	snaps   map[string]*game.Snapshot
	ctxErrs []error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{snaps: make(map[string]*game.Snapshot)}
}

func (s *recordingStore) Save(ctx context.Context, snap *game.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.snaps[snap.GameID] = snap
	return nil
}

func (s *recordingStore) Load(_ context.Context, gameID string) (*game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[gameID]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return snap, nil
}

func (s *recordingStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, gameID)
	return nil
}

func (s *recordingStore) saves() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.ctxErrs...)
}

func TestWebsocketMovesArePersisted(t *testing.T) {
	store := newRecordingStore()
	f := newFixture(t, game.WithStore(store))
	id := f.createGame(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	alice := dial(t, ts, "/api/games/"+id+"/ws?player=alice")
	readUntil(t, alice, func(m WSMessage) bool { return m.Type == MsgGameView })

	payload, err := json.Marshal(moveRequest{Type: "end_turn"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(WSMessage{Type: MsgMove, Payload: payload}))
	readUntil(t, alice, func(m WSMessage) bool {
		if m.Type != MsgGameView {
			return false
		}
		var v game.GameView
		require.NoError(t, json.Unmarshal(m.Payload, &v))
		return v.CurrentPlayer == "bob"
	})

	saves := store.saves()
	require.GreaterOrEqual(t, len(saves), 2, "create and the websocket move both persist")
	for i, err := range saves {
		assert.NoError(t, err, "save %d ran with a cancelled context", i)
	}

	snap, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	live, err := f.manager.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, live.Checksum, snap.Checksum)
}

func TestJournalRoute(t *testing.T) {
	f := newFixture(t, game.WithJournal(game.NewJournalRecorder(zaptest.NewLogger(t), t.TempDir())))
	id := f.createGame(t)

	w := f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "use_hero_ability", PlayerID: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/games/"+id+"/moves", moveRequest{Type: "end_turn", PlayerID: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	type journalResponse struct {
		GameID  string              `json:"game_id"`
		Entries []game.JournalEntry `json:"entries"`
	}
	w = f.do(t, http.MethodGet, "/api/games/"+id+"/journal", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var all journalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, id, all.GameID)
	require.Len(t, all.Entries, 2)
	assert.Equal(t, game.MoveUseHeroAbility, all.Entries[0].Move.Type)

	w = f.do(t, http.MethodGet, "/api/games/"+id+"/journal?since="+all.Entries[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rest journalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rest))
	require.Len(t, rest.Entries, 1)
	assert.Equal(t, all.Entries[1].ID, rest.Entries[0].ID)

	w = f.do(t, http.MethodGet, "/api/games/"+id+"/journal?since=not-a-ulid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decodeError(t, w).Code)

	w = f.do(t, http.MethodGet, "/api/games/missing/journal", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/api/games/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/games/"+id+"/journal?since="+ulid.ULID{}.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, "removed games are read from the saved journal")
	var saved journalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Len(t, saved.Entries, 2)
}

func TestJournalRouteWithoutRecorder(t *testing.T) {
	f := newFixture(t)
	id := f.createGame(t)
	w := f.do(t, http.MethodGet, "/api/games/"+id+"/journal", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "journal_disabled", decodeError(t, w).Code)
}

func TestReplyAfterUnregisterIsDropped(t *testing.T) {
	f := newFixture(t)
	id := f.createGame(t)

	client := &Client{hub: f.hub, send: make(chan []byte, sendBuffer), gameID: id, playerID: "alice"}
	f.hub.register <- client
	f.hub.unregister <- client

	assert.NotPanics(t, func() {
		client.reply(errorMessage(id, errBadMessage))
	})

	var frames int
	for range client.send {
		frames++
	}
	assert.Equal(t, 1, frames, "only the initial view reaches a client the hub has let go")
}

func TestReplyAfterHubStops(t *testing.T) {
	logger := zaptest.NewLogger(t)
	hub := NewHub(game.NewManager(logger), nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := &Client{hub: hub, send: make(chan []byte, 1), gameID: "g"}
	done := make(chan struct{})
	go func() {
		client.reply(errorMessage("g", errBadMessage))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reply blocked after the hub stopped")
	}
}
