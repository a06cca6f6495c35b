package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledgerline/ledgerline-server/internal/catalog"
	"github.com/ledgerline/ledgerline-server/internal/config"
	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Server exposes the game manager over HTTP and websockets.
type Server struct {
	cfg     config.ServerConfig
	logger  *zap.Logger
	manager *game.Manager
	catalog *catalog.Catalog
	hub     *Hub
	router  *gin.Engine
}

// New builds the router. The hub must be running for websocket clients to
// receive updates.
func New(cfg config.ServerConfig, manager *game.Manager, cat *catalog.Catalog, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		catalog: cat,
		hub:     hub,
	}

	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger))
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/catalog", s.getCatalog)

	games := api.Group("/games")
	games.POST("", s.createGame)
	games.GET("", s.listGames)
	games.GET("/:id/view/:player", s.viewGame)
	games.GET("/:id/spectate", s.spectateGame)
	games.POST("/:id/moves", s.applyMove)
	games.GET("/:id/journal", s.gameJournal)
	games.DELETE("/:id", s.deleteGame)
	games.GET("/:id/ws", s.serveWS)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// Seat defaults when a create request leaves hero or deck empty.
const (
	DefaultHero = "founder"
	DefaultDeck = "bootstrap"
)

type seatRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
	Hero string `json:"hero"`
	Deck string `json:"deck"`
}

type createGameRequest struct {
	Players []seatRequest `json:"players" binding:"required,min=1,dive"`
}

type createGameResponse struct {
	GameID string `json:"game_id"`
}

type moveRequest struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	HandIndex   int    `json:"hand_index"`
	ChoiceIndex int    `json:"choice_index"`
	OptionLabel string `json:"option_label"`
}

// toMove validates the request. A non-empty playerID overrides the body.
func (r moveRequest) toMove(playerID string) (game.Move, error) {
	mt, err := game.ParseMoveType(r.Type)
	if err != nil {
		return game.Move{}, err
	}
	if playerID == "" {
		playerID = strings.TrimSpace(r.PlayerID)
	}
	return game.Move{
		Type:        mt,
		PlayerID:    playerID,
		HandIndex:   r.HandIndex,
		ChoiceIndex: r.ChoiceIndex,
		OptionLabel: r.OptionLabel,
	}, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "games": len(s.manager.GameIDs())})
}

func (s *Server) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog)
}

func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}

	seats := make([]game.Seat, 0, len(req.Players))
	for _, p := range req.Players {
		if p.Hero == "" {
			p.Hero = DefaultHero
		}
		if p.Deck == "" {
			p.Deck = DefaultDeck
		}
		seat, err := s.catalog.Seat(strings.TrimSpace(p.ID), p.Name, p.Hero, p.Deck)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_seat"})
			return
		}
		seats = append(seats, seat)
	}

	id, err := s.manager.Create(c.Request.Context(), seats)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}
	s.logger.Info("game created", zap.String("game_id", id), zap.Int("players", len(seats)))
	c.JSON(http.StatusCreated, createGameResponse{GameID: id})
}

func (s *Server) listGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": s.manager.GameIDs()})
}

func (s *Server) viewGame(c *gin.Context) {
	view, err := s.manager.View(c.Param("id"), c.Param("player"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) spectateGame(c *gin.Context) {
	view, err := s.manager.View(c.Param("id"), "")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) applyMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}
	move, err := req.toMove("")
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.manager.Apply(c.Request.Context(), c.Param("id"), move)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// gameJournal lists journaled moves after the optional since ULID.
func (s *Server) gameJournal(c *gin.Context) {
	var since ulid.ULID
	if raw := c.Query("since"); raw != "" {
		id, err := ulid.Parse(raw)
		if err != nil {
			s.fail(c, fmt.Errorf("%w: since: %v", errBadMessage, err))
			return
		}
		since = id
	}
	entries, err := s.manager.Journal(c.Param("id"), since)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_id": c.Param("id"), "entries": entries})
}

func (s *Server) deleteGame(c *gin.Context) {
	if err := s.manager.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) serveWS(c *gin.Context) {
	gameID := c.Param("id")
	playerID := c.Query("player")
	if _, err := s.manager.View(gameID, playerID); err != nil {
		s.fail(c, err)
		return
	}
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "websocket hub not running", Code: "unavailable"})
		return
	}
	s.hub.ServeWS(c.Writer, c.Request, gameID, playerID)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorBody{Error: err.Error(), Code: errorCode(err)})
}
