package game

import "errors"

// Move rejections. A rejected move never mutates the game state.
var (
	ErrGameOver            = errors.New("game is over")
	ErrGameNotFound        = errors.New("game not found")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrNotActivePlayer     = errors.New("not the active player")
	ErrAwaitingChoice      = errors.New("player must resolve a pending choice first")
	ErrNoPendingChoice     = errors.New("no pending choice")
	ErrInvalidChoice       = errors.New("invalid choice")
	ErrInvalidHandIndex    = errors.New("invalid hand index")
	ErrInsufficientCapital = errors.New("insufficient capital")
	ErrHeroAbilityUsed     = errors.New("hero ability already used this turn")
	ErrUnknownMove         = errors.New("unknown move type")
)

// ErrJournalDisabled is returned by journal reads when no recorder is configured.
var ErrJournalDisabled = errors.New("move journal is disabled")
