package server

import (
	"errors"
	"net/http"

	"github.com/ledgerline/ledgerline-server/internal/game"
)

var (
	errBadMessage = errors.New("malformed message")
	errSpectator  = errors.New("spectators cannot make moves")
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{game.ErrGameNotFound, http.StatusNotFound, "game_not_found"},
	{game.ErrUnknownPlayer, http.StatusNotFound, "unknown_player"},
	{game.ErrJournalDisabled, http.StatusNotFound, "journal_disabled"},
	{game.ErrNotActivePlayer, http.StatusConflict, "not_active_player"},
	{game.ErrAwaitingChoice, http.StatusConflict, "awaiting_choice"},
	{game.ErrGameOver, http.StatusConflict, "game_over"},
	{game.ErrNoPendingChoice, http.StatusConflict, "no_pending_choice"},
	{game.ErrHeroAbilityUsed, http.StatusConflict, "hero_ability_used"},
	{game.ErrInvalidChoice, http.StatusBadRequest, "invalid_choice"},
	{game.ErrInvalidHandIndex, http.StatusBadRequest, "invalid_hand_index"},
	{game.ErrInsufficientCapital, http.StatusBadRequest, "insufficient_capital"},
	{game.ErrUnknownMove, http.StatusBadRequest, "unknown_move"},
	{errBadMessage, http.StatusBadRequest, "bad_request"},
	{errSpectator, http.StatusForbidden, "spectator"},
}

func errorStatus(err error) int {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return "internal"
}
