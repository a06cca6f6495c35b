package game

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/ledger"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"go.uber.org/zap"
)

// NewGame builds a game, shuffles every deck, deals opening hands and starts
// the first player's turn.
func (e *Engine) NewGame(id string, cfg RulesConfig, seats []Seat) (*GameState, error) {
	gs, err := NewGameState(id, cfg, seats)
	if err != nil {
		return nil, err
	}
	for _, pid := range gs.Order {
		p := gs.Players[pid]
		p.Deck = e.shuffler.Shuffle(p.Deck)
		e.Draw(gs, p, gs.Rules.OpeningHand)
	}

	e.logger.Info("game created",
		zap.String("game_id", gs.ID),
		zap.Strings("players", gs.Order),
		zap.Int64("revenue_goal", gs.Rules.RevenueGoal),
	)

	e.StartTurn(gs)
	return gs, nil
}

// StartTurn runs the automatic phases for the current player and leaves the
// game in the actions phase. It stops early once the game is over.
func (e *Engine) StartTurn(gs *GameState) {
	p, ok := gs.Players[gs.CurrentPlayer]
	if !ok || gs.GameOver {
		return
	}
	e.publish(gs, rules.NewEventWithAmount(rules.EventTurnStarted, p.ID, "", "", int64(gs.Turn)))

	runners := map[rules.Phase]func(*GameState, *PlayerState){
		rules.PhaseTurnStart: e.turnStartPhase,
		rules.PhasePassive:   e.passivePhase,
		rules.PhaseOverhead:  e.overheadPhase,
		rules.PhaseSales:     e.salesPhase,
	}
	for _, phase := range rules.Sequence() {
		e.enterPhase(gs, p, phase)
		if !phase.IsAutomatic() {
			return
		}
		runners[phase](gs, p)
		if gs.GameOver {
			return
		}
	}
}

func (e *Engine) enterPhase(gs *GameState, p *PlayerState, phase rules.Phase) {
	gs.Phase = phase
	evt := rules.NewEvent(rules.EventPhaseChanged, p.ID, "", "")
	evt.Data = phase.String()
	e.publish(gs, evt)
}

// turnStartPhase refreshes capital, pays out matured delayed gains and draws.
// A pending double-capital flag doubles the refresh and is spent by it.
func (e *Engine) turnStartPhase(gs *GameState, p *PlayerState) {
	refresh := gs.TurnCapital()
	if gs.Context(p.ID).ConsumeDoubleCapital() {
		refresh = ledger.MulSaturating(refresh, 2)
	}
	p.SetCapital(refresh, gs.Rules.CapMax)
	if matured := gs.Context(p.ID).TickDelayed(); matured != 0 {
		e.GainCapital(gs, p, matured, "")
	}
	e.Draw(gs, p, gs.Rules.DrawPerTurn)
}

// passivePhase applies every recurring board effect in scan order.
func (e *Engine) passivePhase(gs *GameState, p *PlayerState) {
	for _, c := range p.Board.All() {
		_, h, ok := e.lookup(gs, p, c.Effect, c.ID)
		if !ok || h.Passive == nil {
			continue
		}
		h.Passive(e, gs, p, c)
		if gs.GameOver {
			return
		}
	}
}

// overheadPhase charges every active product its overhead. A product whose
// overhead cannot be paid is deactivated unless something keeps it running.
func (e *Engine) overheadPhase(gs *GameState, p *PlayerState) {
	ctx := gs.Context(p.ID)
	lightsOn := p.Board.HasEffect(EffectKeepTheLightsOn.String())
	for _, product := range p.Board.ActiveProducts() {
		cost := int64(product.OverheadCost)
		if cost <= 0 {
			continue
		}
		if p.Spend(cost) {
			e.publish(gs, rules.NewEventWithAmount(rules.EventOverheadPaid, p.ID, product.ID, product.ID, cost))
			e.publish(gs, rules.NewEventWithAmount(rules.EventCapitalChanged, p.ID, product.ID, "", -cost))
			continue
		}
		if lightsOn || ctx.ConsumePreventDeactivation() {
			e.logger.Debug("overhead unpaid but product kept active",
				zap.String("game_id", gs.ID),
				zap.String("player_id", p.ID),
				zap.String("card_id", product.ID),
			)
			continue
		}
		product.IsActive = false
		e.publish(gs, rules.NewEvent(rules.EventProductDeactivated, p.ID, "", product.ID))
	}
}

// salesPhase sells one unit of every active product, then any extra sales
// granted this turn.
func (e *Engine) salesPhase(gs *GameState, p *PlayerState) {
	for _, product := range p.Board.ActiveProducts() {
		e.SellUnit(gs, p, product, 1)
		if gs.GameOver {
			return
		}
	}

	ctx := gs.Context(p.ID)
	for ctx.ExtraSales > 0 {
		product := firstSellable(p.Board.Products)
		if product == nil {
			break
		}
		ctx.ExtraSales--
		e.SellUnit(gs, p, product, 1)
		if gs.GameOver {
			return
		}
	}
}

func firstSellable(products []*card.Card) *card.Card {
	for _, c := range products {
		if c.CanSell() {
			return c
		}
	}
	return nil
}

// cleanup ends the current player's turn and hands over to the next seat.
func (e *Engine) cleanup(gs *GameState, p *PlayerState) {
	e.enterPhase(gs, p, rules.PhaseCleanup)
	gs.Context(p.ID).EndTurn(e.now(), gs.Rules.RecentSaleTTL)
	p.HeroAbilityUsed = false
	e.publish(gs, rules.NewEventWithAmount(rules.EventTurnEnded, p.ID, "", "", int64(gs.Turn)))

	if e.CheckGameEnd(gs) {
		return
	}

	gs.CurrentPlayer = rules.NextPlayer(gs.Order, p.ID)
	gs.Turn++
	e.StartTurn(gs)
}
