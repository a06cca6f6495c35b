package game

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
)

// Recurring board effects, applied every turn in the passive phase. They read
// persistent board state only, so rescanning each turn is safe.

const (
	visualIdentityBonus    = 100
	visualIdentityMaxCount = 3
	appealBoostPerPoint    = 100
	subscriptionRevenue    = 300
)

func init() {
	register(EffectSteadyIncome, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.GainCapital(gs, p, 1, src.ID)
		},
	})

	register(EffectWarehouse, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			for _, product := range p.Board.ActiveProducts() {
				if product.Inventory == 0 {
					e.AddInventory(gs, p, product, 1)
				}
			}
		},
	})

	// Each visual identity adds 100 to every sale this turn per product
	// controlled, counting at most 3 products.
	register(EffectVisualIdentity, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			n := len(p.Board.Products)
			if n > visualIdentityMaxCount {
				n = visualIdentityMaxCount
			}
			gs.Context(p.ID).SaleBonus += int64(visualIdentityBonus * n)
		},
	})

	register(EffectSalesRep, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).ExtraSales++
		},
	})

	// Checked by the overhead phase while on the board.
	register(EffectKeepTheLightsOn, Handlers{
		Family: FamilyPassive,
	})

	register(EffectAnalyticsSuite, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			ctx := gs.Context(p.ID)
			for _, product := range p.Board.ActiveProducts() {
				if product.Appeal > 0 {
					ctx.BoostProduct(product.ID, int64(appealBoostPerPoint*product.Appeal))
				}
			}
		},
	})

	register(EffectSubscriptionBox, Handlers{
		Family: FamilyPassive,
		Passive: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			if !src.IsActive {
				return
			}
			e.GainRevenue(gs, p, subscriptionRevenue, src.ID)
		},
	})
}
