package game

import (
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/deck"
	"github.com/ledgerline/ledgerline-server/internal/game/effects"
	"github.com/ledgerline/ledgerline-server/internal/game/ledger"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
)

// HeroID identifies a hero from the catalogue.
type HeroID string

// RulesConfig holds the tunable constants of a game.
type RulesConfig struct {
	CapMax        int64         `json:"cap_max"`
	RevenueGoal   int64         `json:"revenue_goal"`
	BaseCapital   int64         `json:"base_capital"`
	CapitalGrowth int64         `json:"capital_growth"`
	OpeningHand   int           `json:"opening_hand"`
	DrawPerTurn   int           `json:"draw_per_turn"`
	RecentSaleTTL time.Duration `json:"recent_sale_ttl"`
}

// DefaultRules returns the standard rules.
func DefaultRules() RulesConfig {
	return RulesConfig{
		CapMax:        ledger.DefaultCapMax,
		RevenueGoal:   10000,
		BaseCapital:   3,
		CapitalGrowth: 1,
		OpeningHand:   5,
		DrawPerTurn:   1,
		RecentSaleTTL: effects.DefaultRecentSaleTTL,
	}
}

// normalized fills zero values with defaults.
func (r RulesConfig) normalized() RulesConfig {
	def := DefaultRules()
	if r.CapMax <= 0 {
		r.CapMax = def.CapMax
	}
	if r.RevenueGoal <= 0 {
		r.RevenueGoal = def.RevenueGoal
	}
	if r.BaseCapital < 0 {
		r.BaseCapital = 0
	}
	if r.CapitalGrowth < 0 {
		r.CapitalGrowth = 0
	}
	if r.OpeningHand < 0 {
		r.OpeningHand = 0
	}
	if r.DrawPerTurn < 0 {
		r.DrawPerTurn = 0
	}
	if r.RecentSaleTTL <= 0 {
		r.RecentSaleTTL = def.RecentSaleTTL
	}
	return r
}

// PlayerState is everything one player owns.
type PlayerState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	ledger.Ledger
	deck.Zones
	Board           card.Board    `json:"board"`
	Hero            HeroID        `json:"hero"`
	HeroAbility     string        `json:"hero_ability"`
	HeroAbilityUsed bool          `json:"hero_ability_used"`
	PendingChoices  *choice.Queue `json:"pending_choices"`
}

// AwaitingChoice reports whether the player has an unanswered choice.
func (p *PlayerState) AwaitingChoice() bool {
	return p.PendingChoices.Awaiting()
}

// Seat describes a player joining a new game.
type Seat struct {
	ID          string
	Name        string
	Hero        HeroID
	HeroAbility string
	Deck        []*card.Card
}

// GameState is the aggregate mutated in place for the life of a game.
type GameState struct {
	ID            string                      `json:"id"`
	Players       map[string]*PlayerState     `json:"players"`
	Order         []string                    `json:"order"`
	Turn          int                         `json:"turn"`
	CurrentPlayer string                      `json:"current_player"`
	Phase         rules.Phase                 `json:"phase"`
	GameOver      bool                        `json:"game_over"`
	Winner        bool                        `json:"winner"`
	WinnerID      string                      `json:"winner_id,omitempty"`
	EffectContext map[string]*effects.Context `json:"effect_context"`
	Rules         RulesConfig                 `json:"rules"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// NewGameState creates the aggregate for the given seats in seat order.
// Decks are taken as given; shuffling and the opening draw belong to the engine.
func NewGameState(id string, cfg RulesConfig, seats []Seat) (*GameState, error) {
	if id == "" {
		return nil, fmt.Errorf("game id is required")
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("at least 1 player required")
	}

	gs := &GameState{
		ID:            id,
		Players:       make(map[string]*PlayerState, len(seats)),
		Order:         make([]string, 0, len(seats)),
		Turn:          1,
		CurrentPlayer: seats[0].ID,
		Phase:         rules.PhaseTurnStart,
		EffectContext: make(map[string]*effects.Context, len(seats)),
		Rules:         cfg.normalized(),
		CreatedAt:     time.Now().UTC(),
	}

	for _, seat := range seats {
		if seat.ID == "" {
			return nil, fmt.Errorf("player id is required")
		}
		if _, exists := gs.Players[seat.ID]; exists {
			return nil, fmt.Errorf("duplicate player %s", seat.ID)
		}
		name := seat.Name
		if name == "" {
			name = seat.ID
		}
		cards := make([]*card.Card, len(seat.Deck))
		copy(cards, seat.Deck)
		gs.Players[seat.ID] = &PlayerState{
			ID:   seat.ID,
			Name: name,
			Zones: deck.Zones{
				Hand:    make([]*card.Card, 0),
				Deck:    cards,
				Discard: make([]*card.Card, 0),
			},
			Board:          card.NewBoard(),
			Hero:           seat.Hero,
			HeroAbility:    seat.HeroAbility,
			PendingChoices: choice.NewQueue(),
		}
		gs.Order = append(gs.Order, seat.ID)
		gs.EffectContext[seat.ID] = effects.NewContext()
	}
	return gs, nil
}

// Player looks up a player by ID.
func (gs *GameState) Player(id string) (*PlayerState, error) {
	p, ok := gs.Players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return p, nil
}

// Context returns the player's effect context, creating it on first access.
func (gs *GameState) Context(playerID string) *effects.Context {
	if gs.EffectContext == nil {
		gs.EffectContext = make(map[string]*effects.Context)
	}
	ctx, ok := gs.EffectContext[playerID]
	if !ok {
		ctx = effects.NewContext()
		gs.EffectContext[playerID] = ctx
	}
	return ctx
}

// Opponents returns every player except id, in seat order.
func (gs *GameState) Opponents(id string) []*PlayerState {
	out := make([]*PlayerState, 0, len(gs.Order))
	for _, pid := range gs.Order {
		if pid != id {
			out = append(out, gs.Players[pid])
		}
	}
	return out
}

// Round is the 1-based count of full rotations, used for capital growth.
func (gs *GameState) Round() int {
	if len(gs.Order) == 0 {
		return gs.Turn
	}
	return (gs.Turn-1)/len(gs.Order) + 1
}

// TurnCapital is the capital a player starts a turn with.
func (gs *GameState) TurnCapital() int64 {
	amount := gs.Rules.BaseCapital + gs.Rules.CapitalGrowth*int64(gs.Round()-1)
	return ledger.Clamp(amount, 0, gs.Rules.CapMax)
}
