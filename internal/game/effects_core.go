package game

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/deck"
)

// Action card effects.

const (
	launchCapital   = "capital"
	launchInventory = "inventory"
	launchCards     = "cards"
)

func init() {
	register(EffectDrawTwo, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			e.Draw(gs, p, 2)
		},
	})

	register(EffectSeedFunding, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.GainCapital(gs, p, 3, sourceID(src))
		},
	})

	register(EffectRestock, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectRestock, src, p.Board.Products, "Choose a product to restock")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if product, ok := chosenOnBoard(p, pc, index); ok {
				product.IsActive = true
				e.AddInventory(gs, p, product, 2)
			}
		},
	})

	register(EffectLiquidate, Handlers{
		Family:    FamilyAction,
		AlwaysAsk: true,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectLiquidate, src, p.Board.Products, "Choose a product to liquidate")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			product, ok := chosenOnBoard(p, pc, index)
			if !ok {
				return
			}
			value := int64(product.Inventory) + 1
			if e.Destroy(gs, p, product) {
				e.GainCapital(gs, p, value, product.ID)
			}
		},
	})

	register(EffectFlashSale, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			for _, product := range p.Board.ActiveProducts() {
				e.SellUnit(gs, p, product, 1)
				if gs.GameOver {
					return
				}
			}
		},
	})

	register(EffectMarketResearch, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectMarketResearch, src, deck.TopN(&p.Zones, 3), "Choose a card to put into your hand")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if c, ok := deck.RemoveFromDeck(&p.Zones, pc.Cards[index].ID); ok {
				p.Hand = append(p.Hand, c)
			}
		},
	})

	register(EffectPivot, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectPivot, src, p.Hand, "Choose a card to discard")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			c, ok := deck.RemoveFromHand(&p.Zones, pc.Cards[index].ID)
			if !ok {
				return
			}
			deck.DiscardCard(&p.Zones, c)
			e.Draw(gs, p, 2)
		},
	})

	register(EffectBulkOrder, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).AddTypeDiscount(card.TypeProduct, 2)
		},
	})

	register(EffectEfficiencyDrive, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).NextToolDiscount += 2
		},
	})

	register(EffectHiringSpree, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).AddTypeDiscount(card.TypeEmployee, 1)
			e.Draw(gs, p, 1)
		},
	})

	register(EffectQuarterlyPush, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			ctx := gs.Context(p.ID)
			if ctx.RevenueMultiplierNext < 2 {
				ctx.RevenueMultiplierNext = 2
				return
			}
			ctx.RevenueMultiplierNext++
		},
	})

	register(EffectReinvest, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).DoubleCapitalNext = true
		},
	})

	register(EffectHostileBid, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			// Lands on each opponent's turn-scoped field, so it shrinks
			// their discounts through their next turn.
			for _, opp := range gs.Opponents(p.ID) {
				gs.Context(opp.ID).CostIncrease++
			}
		},
	})

	register(EffectDoubleDown, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectDoubleDown, src, sellable(p.Board.Products), "Choose a product to sell at double price")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if product, ok := chosenOnBoard(p, pc, index); ok {
				e.SellUnit(gs, p, product, 2)
			}
		},
	})

	register(EffectLongTermContract, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			gs.Context(p.ID).ScheduleCapital(2, 4, sourceID(src))
		},
	})

	register(EffectViralCampaign, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectViralCampaign, src, p.Board.Products, "Choose a product to promote")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if product, ok := chosenOnBoard(p, pc, index); ok {
				product.Appeal += 2
			}
		},
	})

	register(EffectAudit, Handlers{
		Family:    FamilyAction,
		AlwaysAsk: true,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectMany(gs, p, EffectAudit, src, p.Hand, 2, "Discard up to two cards, gain 1 capital each")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			e.multiSelectStep(gs, p, pc, index, func(picked *card.Card) {
				c, ok := deck.RemoveFromHand(&p.Zones, picked.ID)
				if !ok {
					return
				}
				deck.DiscardCard(&p.Zones, c)
				e.GainCapital(gs, p, 1, pc.ID)
			})
		},
	})

	register(EffectInsurance, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).PreventDeactivation++
		},
	})

	register(EffectStockpile, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			for _, product := range p.Board.Products {
				e.AddInventory(gs, p, product, 1)
			}
		},
	})

	register(EffectBigLaunch, Handlers{
		Family:    FamilyAction,
		AlwaysAsk: true,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectOption(gs, p, EffectBigLaunch, src,
				[]string{launchCapital, launchInventory, launchCards},
				"Gain 3 capital, add 2 inventory to each active product, or draw 2 cards")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			switch pc.Options[index] {
			case launchCapital:
				e.GainCapital(gs, p, 3, pc.ID)
			case launchInventory:
				for _, product := range p.Board.ActiveProducts() {
					e.AddInventory(gs, p, product, 2)
				}
			case launchCards:
				e.Draw(gs, p, 2)
			}
		},
	})

	register(EffectCopycat, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, src *card.Card) {
			e.selectCard(gs, p, EffectCopycat, src, p.Board.Products, "Choose a product to copy")
		},
		Continue: func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int) {
			if product, ok := chosenOnBoard(p, pc, index); ok {
				p.Board.Place(product.Clone())
			}
		},
	})

	register(EffectAngelRound, Handlers{
		Family: FamilyAction,
		OnPlay: func(e *Engine, gs *GameState, p *PlayerState, _ *card.Card) {
			gs.Context(p.ID).NextCardFree = true
		},
	})
}

// chosenOnBoard finds the picked card on the player's current board.
// Choices hold copies once a game is restored, so lookup goes by ID.
func chosenOnBoard(p *PlayerState, pc *choice.PendingChoice, index int) (*card.Card, bool) {
	if index < 0 || index >= len(pc.Cards) {
		return nil, false
	}
	return p.Board.Find(pc.Cards[index].ID)
}

func sellable(products []*card.Card) []*card.Card {
	var out []*card.Card
	for _, c := range products {
		if c.CanSell() {
			out = append(out, c)
		}
	}
	return out
}

func sourceID(c *card.Card) string {
	if c == nil {
		return ""
	}
	return c.ID
}
