package game

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
)

// Hero abilities, usable once per turn. They resolve with a nil source card.

func init() {
	register(EffectFounderGrit, Handlers{
		Family: FamilyHero,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			e.GainCapital(gs, p, 2, string(p.Hero))
		},
	})

	register(EffectBrandVision, Handlers{
		Family: FamilyHero,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectBrandVision, src, p.Board.Products, "Choose a product to build your brand on")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if product, ok := chosenOnBoard(p, pc, index); ok {
				product.Appeal++
				e.AddInventory(gs, p, product, 1)
			}
		},
	})

	register(EffectAutomationPipeline, Handlers{
		Family: FamilyHero,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			e.Draw(gs, p, 1)
			gs.Context(p.ID).NextCardDiscount++
		},
	})

	register(EffectDealmakerLeverage, Handlers{
		Family: FamilyHero,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).NextCardDiscount += 2
		},
	})
}
