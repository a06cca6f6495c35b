package game

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
)

// Employees. Discount employees are read by the discount resolver straight
// from the board, so they carry no handlers.

func init() {
	register(EffectSerialOperator, Handlers{Family: FamilyDiscount})
	register(EffectProcurementLead, Handlers{Family: FamilyDiscount})
	register(EffectMorningStandup, Handlers{Family: FamilyDiscount})

	register(EffectHypeMan, Handlers{
		Family: FamilyReactive,
		Reactive: func(e *Engine, gs *GameState, p *PlayerState, self, played *card.Card) {
			if played.Type == card.TypeProduct {
				e.GainCapital(gs, p, 1, self.ID)
			}
		},
	})

	register(EffectProductManager, Handlers{
		Family: FamilyReactive,
		Reactive: func(e *Engine, gs *GameState, p *PlayerState, self, played *card.Card) {
			if played.Type != card.TypeProduct {
				return
			}
			if product, ok := p.Board.Find(played.ID); ok {
				e.AddInventory(gs, p, product, 1)
			}
		},
	})

	register(EffectTinkerer, Handlers{
		Family: FamilyReactive,
		Reactive: func(e *Engine, gs *GameState, p *PlayerState, self, played *card.Card) {
			if played.Type == card.TypeTool {
				e.Draw(gs, p, 1)
			}
		},
	})
}
