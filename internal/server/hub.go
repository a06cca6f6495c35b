package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Message types on the websocket.
const (
	MsgGameView = "game_view"
	MsgMove     = "move"
	MsgError    = "error"
)

// WSMessage is the envelope for every websocket frame.
type WSMessage struct {
	Type    string          `json:"type"`
	GameID  string          `json:"game_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is one websocket connection watching a game as a player or spectator.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	gameID   string
	playerID string
}

// Hub fans game projections out to websocket clients. Engine events only mark
// games dirty; projections are built on the hub goroutine, outside the game lock.
type Hub struct {
	logger   *zap.Logger
	manager  *game.Manager
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	replies    chan outbound

	dirtyMu sync.Mutex
	dirty   map[string]bool
	notify  chan struct{}
	done    chan struct{}

	listener int
}

// outbound is a frame addressed to one client by its read goroutine.
type outbound struct {
	client *Client
	msg    WSMessage
}

// NewHub creates a hub subscribed to the manager's events. Call Run to start it.
func NewHub(manager *game.Manager, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		logger:     logger,
		manager:    manager,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replies:    make(chan outbound),
		dirty:      make(map[string]bool),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	h.listener = manager.Events().Subscribe(h.onEvent)
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// onEvent runs on the engine goroutine with the game locked. It must not block.
func (h *Hub) onEvent(evt rules.Event) {
	if evt.GameID == "" {
		return
	}
	h.MarkDirty(evt.GameID)
}

// MarkDirty schedules a projection refresh for every client of a game.
func (h *Hub) MarkDirty(gameID string) {
	h.dirtyMu.Lock()
	h.dirty[gameID] = true
	h.dirtyMu.Unlock()
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Run serves registrations and refreshes until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.manager.Events().Unsubscribe(h.listener)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client registered",
				zap.String("game_id", client.gameID),
				zap.String("player_id", client.playerID),
			)
			h.sendView(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("websocket client unregistered",
					zap.String("game_id", client.gameID),
					zap.String("player_id", client.playerID),
				)
			}

		case r := <-h.replies:
			if h.clients[r.client] {
				h.queue(r.client, r.msg)
			}

		case <-h.notify:
			h.dirtyMu.Lock()
			games := h.dirty
			h.dirty = make(map[string]bool)
			h.dirtyMu.Unlock()

			for client := range h.clients {
				if games[client.gameID] {
					h.sendView(client)
				}
			}
		}
	}
}

// sendView pushes the client's projection. A client whose buffer is full is dropped.
func (h *Hub) sendView(client *Client) {
	view, err := h.manager.View(client.gameID, client.playerID)
	if err != nil {
		h.queue(client, errorMessage(client.gameID, err))
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		h.logger.Error("failed to encode game view", zap.String("game_id", client.gameID), zap.Error(err))
		return
	}
	h.queue(client, WSMessage{Type: MsgGameView, GameID: client.gameID, Payload: payload})
}

func (h *Hub) queue(client *Client, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("websocket client too slow, dropping",
			zap.String("game_id", client.gameID),
			zap.String("player_id", client.playerID),
		)
		delete(h.clients, client)
		close(client.send)
	}
}

// ServeWS upgrades the request and attaches the connection to a game.
// An empty playerID watches as a spectator.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID, playerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		gameID:   gameID,
		playerID: playerID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Moves outlive the upgrade request, whose context ends once the handler returns.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	go client.writePump()
	go func() {
		defer cancel()
		client.readPump(ctx)
	}()
}

// readPump applies moves sent by the client. Moves from spectators are rejected.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.String("game_id", c.gameID), zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgMove {
			c.reply(errorMessage(c.gameID, errBadMessage))
			continue
		}
		if c.playerID == "" {
			c.reply(errorMessage(c.gameID, errSpectator))
			continue
		}
		var req moveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.reply(errorMessage(c.gameID, errBadMessage))
			continue
		}
		move, err := req.toMove(c.playerID)
		if err == nil {
			_, err = c.hub.manager.Apply(ctx, c.gameID, move)
		}
		if err != nil {
			c.reply(errorMessage(c.gameID, err))
		}
	}
}

// reply hands a frame to the hub, which owns the send channel.
func (c *Client) reply(msg WSMessage) {
	select {
	case c.hub.replies <- outbound{client: c, msg: msg}:
	case <-c.hub.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorMessage(gameID string, err error) WSMessage {
	payload, _ := json.Marshal(errorBody{Error: err.Error(), Code: errorCode(err)})
	return WSMessage{Type: MsgError, GameID: gameID, Payload: payload}
}
