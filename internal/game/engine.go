package game

import (
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/deck"
	"github.com/ledgerline/ledgerline-server/internal/game/discount"
	"github.com/ledgerline/ledgerline-server/internal/game/ledger"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"go.uber.org/zap"
)

// Engine applies moves and runs the turn pipeline against a GameState.
// It holds no per-game state; callers serialize access to each GameState.
type Engine struct {
	logger    *zap.Logger
	discounts *discount.Resolver
	shuffler  deck.Shuffler
	bus       *rules.EventBus
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithShuffler sets the shuffle collaborator.
func WithShuffler(s deck.Shuffler) Option {
	return func(e *Engine) {
		if s != nil {
			e.shuffler = s
		}
	}
}

// WithEventBus publishes every rules event to bus.
func WithEventBus(bus *rules.EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithClock overrides the wall clock used for time-boxed context fields.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDiscountResolver replaces the default discount sources.
func WithDiscountResolver(r *discount.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.discounts = r
		}
	}
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:    logger,
		discounts: discount.NewDefaultResolver(),
		shuffler:  deck.NewRandomShuffler(0),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) publish(gs *GameState, evt rules.Event) {
	if e.bus == nil {
		return
	}
	evt.GameID = gs.ID
	e.bus.Publish(evt)
}

// CardCost previews the cost of a card for a player without consuming anything.
func (e *Engine) CardCost(gs *GameState, p *PlayerState, c *card.Card) discount.Result {
	return e.discounts.Compute(discount.Input{
		Card:    c,
		Board:   &p.Board,
		Context: gs.Context(p.ID),
	}, discount.Preview)
}

// GainCapital adds capital for a player. The result is clamped to [0, CapMax].
func (e *Engine) GainCapital(gs *GameState, p *PlayerState, amount int64, sourceID string) int64 {
	applied := p.GainCapital(amount, gs.Rules.CapMax)
	if applied != 0 {
		e.publish(gs, rules.NewEventWithAmount(rules.EventCapitalChanged, p.ID, sourceID, "", applied))
	}
	return applied
}

// GainRevenue adds revenue for a player and runs the game-end check.
func (e *Engine) GainRevenue(gs *GameState, p *PlayerState, amount int64, sourceID string) int64 {
	applied := p.GainRevenue(amount)
	if applied != 0 {
		e.publish(gs, rules.NewEventWithAmount(rules.EventRevenueGained, p.ID, sourceID, "", applied))
	}
	e.CheckGameEnd(gs)
	return applied
}

// Draw draws up to n cards for a player.
func (e *Engine) Draw(gs *GameState, p *PlayerState, n int) []*card.Card {
	drawn := deck.Draw(&p.Zones, n)
	for _, c := range drawn {
		e.publish(gs, rules.NewEvent(rules.EventCardDrawn, p.ID, "", c.ID))
	}
	if len(drawn) < n {
		e.logger.Debug("deck ran out while drawing",
			zap.String("game_id", gs.ID),
			zap.String("player_id", p.ID),
			zap.Int("requested", n),
			zap.Int("drawn", len(drawn)),
		)
	}
	return drawn
}

// AddInventory changes a product's stock and runs the game-end check.
func (e *Engine) AddInventory(gs *GameState, p *PlayerState, product *card.Card, delta int) {
	before := product.Inventory
	after := product.AddInventory(delta)
	if after != before {
		e.publish(gs, rules.NewEventWithAmount(rules.EventInventoryChanged, p.ID, "", product.ID, int64(after-before)))
	}
	e.CheckGameEnd(gs)
}

// SellUnit sells one unit of an active product. The sale price is the base
// price plus this turn's sale bonus and the product's boost, times a pending
// revenue multiplier and the extra factor. It returns the revenue earned.
func (e *Engine) SellUnit(gs *GameState, p *PlayerState, product *card.Card, factor int64) int64 {
	if !product.CanSell() {
		return 0
	}
	if factor < 1 {
		factor = 1
	}
	ctx := gs.Context(p.ID)
	product.AddInventory(-1)

	price := ledger.AddSaturating(product.RevenuePerSale, ctx.SaleBonus)
	price = ledger.AddSaturating(price, ctx.ProductRevenueBoosts[product.ID])
	price = ledger.MulSaturating(price, ledger.MulSaturating(ctx.ConsumeRevenueMultiplier(), factor))

	ctx.RecordSale(product.ID, price, e.now())
	e.publish(gs, rules.NewEventWithAmount(rules.EventProductSold, p.ID, product.ID, product.ID, price))
	e.GainRevenue(gs, p, price, product.ID)
	return price
}

// Destroy removes a card from the player's board into the discard pile.
func (e *Engine) Destroy(gs *GameState, p *PlayerState, c *card.Card) bool {
	removed, ok := p.Board.Remove(c.ID)
	if !ok {
		return false
	}
	removed.IsActive = false
	deck.DiscardCard(&p.Zones, removed)
	e.publish(gs, rules.NewEvent(rules.EventCardDestroyed, p.ID, "", removed.ID))
	e.CheckGameEnd(gs)
	return true
}

// enqueueChoice queues a choice for the player.
func (e *Engine) enqueueChoice(gs *GameState, p *PlayerState, pc *choice.PendingChoice) {
	p.PendingChoices.Enqueue(pc)
	e.publish(gs, rules.NewEvent(rules.EventChoiceQueued, p.ID, pc.ID, ""))
	e.logger.Debug("choice queued",
		zap.String("game_id", gs.ID),
		zap.String("player_id", p.ID),
		zap.String("effect", pc.Effect),
		zap.String("kind", string(pc.Kind)),
		zap.Int("queue_len", p.PendingChoices.Len()),
	)
}

// selectCard either resolves immediately or queues a card choice.
// Zero candidates is a no-op. One candidate resolves at once unless the
// effect always asks.
func (e *Engine) selectCard(gs *GameState, p *PlayerState, kind EffectKind, src *card.Card, candidates []*card.Card, prompt string) {
	if len(candidates) == 0 {
		e.logger.Debug("effect has no valid targets",
			zap.String("game_id", gs.ID),
			zap.String("player_id", p.ID),
			zap.Stringer("effect", kind),
		)
		return
	}
	pc := choice.New(choice.KindSelectCard, kind.String())
	pc.Prompt = prompt
	pc.Cards = append([]*card.Card(nil), candidates...)
	pc.Count = 1
	pc.SourceCard = src

	h := registry[kind]
	if len(candidates) == 1 && !h.AlwaysAsk {
		h.Continue(e, gs, p, pc, 0)
		return
	}
	e.enqueueChoice(gs, p, pc)
}

// selectMany queues a multi-select of up to count cards.
func (e *Engine) selectMany(gs *GameState, p *PlayerState, kind EffectKind, src *card.Card, candidates []*card.Card, count int, prompt string) {
	if len(candidates) == 0 || count <= 0 {
		return
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	pc := choice.New(choice.KindMultiSelect, kind.String())
	pc.Prompt = prompt
	pc.Cards = append([]*card.Card(nil), candidates...)
	pc.Count = count
	pc.SourceCard = src
	e.enqueueChoice(gs, p, pc)
}

// selectOption queues a choice between named options.
func (e *Engine) selectOption(gs *GameState, p *PlayerState, kind EffectKind, src *card.Card, options []string, prompt string) {
	if len(options) == 0 {
		return
	}
	pc := choice.New(choice.KindSelectOption, kind.String())
	pc.Prompt = prompt
	pc.Options = options
	pc.Count = 1
	pc.SourceCard = src
	e.enqueueChoice(gs, p, pc)
}

// lookup resolves a card's effect key, logging keys with no registered resolver.
func (e *Engine) lookup(gs *GameState, p *PlayerState, key string, sourceID string) (EffectKind, Handlers, bool) {
	if key == "" {
		return EffectNone, Handlers{}, false
	}
	kind, ok := LookupEffect(key)
	if !ok {
		e.logger.Warn("unknown effect key, treating as no-op",
			zap.String("game_id", gs.ID),
			zap.String("player_id", p.ID),
			zap.String("effect", key),
			zap.String("source_id", sourceID),
		)
		e.publish(gs, rules.Event{
			Type:      rules.EventUnknownEffect,
			PlayerID:  p.ID,
			SourceID:  sourceID,
			Data:      key,
			Timestamp: e.now(),
		})
		return EffectNone, Handlers{}, false
	}
	return kind, registry[kind], true
}

// CheckGameEnd evaluates the win and stalemate predicates. It reports whether
// the game is over.
func (e *Engine) CheckGameEnd(gs *GameState) bool {
	if gs.GameOver {
		return true
	}

	for _, pid := range gs.Order {
		p := gs.Players[pid]
		if p.Revenue >= gs.Rules.RevenueGoal {
			gs.GameOver = true
			gs.Winner = true
			gs.WinnerID = pid
			e.logger.Info("game won",
				zap.String("game_id", gs.ID),
				zap.String("winner_id", pid),
				zap.Int64("revenue", p.Revenue),
				zap.Int("turn", gs.Turn),
			)
			e.publish(gs, rules.NewEventWithAmount(rules.EventGameOver, pid, "", "", p.Revenue))
			return true
		}
	}

	for _, pid := range gs.Order {
		if !e.isStuck(gs, gs.Players[pid]) {
			return false
		}
	}

	gs.GameOver = true
	gs.Winner = false
	e.logger.Info("game ended in stalemate",
		zap.String("game_id", gs.ID),
		zap.Int("turn", gs.Turn),
	)
	e.publish(gs, rules.NewEvent(rules.EventGameOver, "", "", ""))
	return true
}

// isStuck reports a player with an empty deck, no affordable hand card and
// no product left to sell.
//
// A player waiting for their turn is measured against the capital refresh
// they will get when it starts, not the leftovers of their last turn.
func (e *Engine) isStuck(gs *GameState, p *PlayerState) bool {
	if len(p.Deck) > 0 {
		return false
	}
	budget := p.Capital
	if p.ID != gs.CurrentPlayer {
		budget = max(budget, gs.TurnCapital())
	}
	for _, c := range p.Hand {
		if int64(e.CardCost(gs, p, c).FinalCost) <= budget {
			return false
		}
	}
	for _, c := range p.Board.Products {
		if c.CanSell() {
			return false
		}
	}
	return true
}

func (e *Engine) checkActor(gs *GameState, playerID string) (*PlayerState, error) {
	if gs.GameOver {
		return nil, ErrGameOver
	}
	p, err := gs.Player(playerID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) checkActive(gs *GameState, playerID string) (*PlayerState, error) {
	p, err := e.checkActor(gs, playerID)
	if err != nil {
		return nil, err
	}
	if gs.CurrentPlayer != playerID {
		return nil, fmt.Errorf("%w: current player is %s", ErrNotActivePlayer, gs.CurrentPlayer)
	}
	if p.AwaitingChoice() {
		return nil, ErrAwaitingChoice
	}
	return p, nil
}
