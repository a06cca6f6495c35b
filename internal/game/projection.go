package game

import (
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/effects"
)

// GameView is the read-only projection sent to a rendering client.
type GameView struct {
	GameID        string       `json:"game_id"`
	Turn          int          `json:"turn"`
	Phase         string       `json:"phase"`
	CurrentPlayer string       `json:"current_player"`
	GameOver      bool         `json:"game_over"`
	Winner        bool         `json:"winner"`
	WinnerID      string       `json:"winner_id,omitempty"`
	RevenueGoal   int64        `json:"revenue_goal"`
	Players       []PlayerView `json:"players"`
	PendingChoice *ChoiceView  `json:"pending_choice,omitempty"`
}

// PlayerView is one player's public state. Hand is filled for the viewer only.
type PlayerView struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Hero            HeroID        `json:"hero"`
	HeroAbilityUsed bool          `json:"hero_ability_used"`
	Capital         int64         `json:"capital"`
	Revenue         int64         `json:"revenue"`
	DeckCount       int           `json:"deck_count"`
	DiscardCount    int           `json:"discard_count"`
	HandCount       int           `json:"hand_count"`
	Hand            []HandCard    `json:"hand,omitempty"`
	Board           card.Board    `json:"board"`
	Effects         EffectSummary `json:"effects"`
	AwaitingChoice  bool          `json:"awaiting_choice"`
}

// HandCard is a hand card with its previewed cost.
type HandCard struct {
	*card.Card
	EffectiveCost int  `json:"effective_cost"`
	Playable      bool `json:"playable"`
}

// EffectSummary is the UI-relevant subset of an effect context. One-shot
// flags that are consumed silently are left out.
type EffectSummary struct {
	CardsPlayedThisTurn int              `json:"cards_played_this_turn"`
	ItemsSoldThisTurn   int              `json:"items_sold_this_turn"`
	RevenueThisTurn     int64            `json:"revenue_this_turn"`
	SoldProductLastTurn bool             `json:"sold_product_last_turn"`
	TypeDiscounts       map[string]int   `json:"type_discounts,omitempty"`
	CostIncrease        int              `json:"cost_increase,omitempty"`
	SaleBonus           int64            `json:"sale_bonus,omitempty"`
	ProductBoosts       map[string]int64 `json:"product_boosts,omitempty"`
	DelayedCapital      int64            `json:"delayed_capital,omitempty"`
	RecentlySold        []string         `json:"recently_sold,omitempty"`
}

// ChoiceView is the head of the viewer's pending choice queue.
type ChoiceView struct {
	ID      string       `json:"id"`
	Kind    choice.Kind  `json:"kind"`
	Effect  string       `json:"effect"`
	Prompt  string       `json:"prompt,omitempty"`
	Cards   []*card.Card `json:"cards,omitempty"`
	Options []string     `json:"options,omitempty"`
	Count   int          `json:"count,omitempty"`
	Picked  int          `json:"picked,omitempty"`
	Queued  int          `json:"queued"`
}

// Project builds the view of gs for viewerID. An empty viewer gets the
// spectator view with no hands and no choice.
func (e *Engine) Project(gs *GameState, viewerID string) GameView {
	now := e.now()
	view := GameView{
		GameID:        gs.ID,
		Turn:          gs.Turn,
		Phase:         gs.Phase.String(),
		CurrentPlayer: gs.CurrentPlayer,
		GameOver:      gs.GameOver,
		Winner:        gs.Winner,
		WinnerID:      gs.WinnerID,
		RevenueGoal:   gs.Rules.RevenueGoal,
		Players:       make([]PlayerView, 0, len(gs.Order)),
	}

	for _, pid := range gs.Order {
		p := gs.Players[pid]
		pv := PlayerView{
			ID:              p.ID,
			Name:            p.Name,
			Hero:            p.Hero,
			HeroAbilityUsed: p.HeroAbilityUsed,
			Capital:         p.Capital,
			Revenue:         p.Revenue,
			DeckCount:       len(p.Deck),
			DiscardCount:    len(p.Discard),
			HandCount:       len(p.Hand),
			Board:           p.Board,
			Effects:         summarize(gs.EffectContext[pid], now, gs.Rules.RecentSaleTTL),
			AwaitingChoice:  p.AwaitingChoice(),
		}
		if pid == viewerID {
			pv.Hand = make([]HandCard, 0, len(p.Hand))
			for _, c := range p.Hand {
				cost := e.CardCost(gs, p, c).FinalCost
				pv.Hand = append(pv.Hand, HandCard{
					Card:          c,
					EffectiveCost: cost,
					Playable:      !gs.GameOver && pid == gs.CurrentPlayer && !p.AwaitingChoice() && int64(cost) <= p.Capital,
				})
			}
			if head, ok := p.PendingChoices.Peek(); ok {
				view.PendingChoice = &ChoiceView{
					ID:      head.ID,
					Kind:    head.Kind,
					Effect:  head.Effect,
					Prompt:  head.Prompt,
					Cards:   head.Cards,
					Options: head.Options,
					Count:   head.Count,
					Picked:  len(head.Picked),
					Queued:  p.PendingChoices.Len(),
				}
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

func summarize(ctx *effects.Context, now time.Time, ttl time.Duration) EffectSummary {
	if ctx == nil {
		return EffectSummary{}
	}
	sum := EffectSummary{
		CardsPlayedThisTurn: ctx.CardsPlayedThisTurn,
		ItemsSoldThisTurn:   ctx.ItemsSoldThisTurn,
		RevenueThisTurn:     ctx.RevenueThisTurn,
		SoldProductLastTurn: ctx.SoldProductLastTurn,
		CostIncrease:        ctx.CostIncrease,
		SaleBonus:           ctx.SaleBonus,
		RecentlySold:        ctx.RecentlySoldIDs(now, ttl),
	}
	if len(ctx.TypeDiscounts) > 0 {
		sum.TypeDiscounts = make(map[string]int, len(ctx.TypeDiscounts))
		for t, v := range ctx.TypeDiscounts {
			if v != 0 {
				sum.TypeDiscounts[string(t)] = v
			}
		}
	}
	if len(ctx.ProductRevenueBoosts) > 0 {
		sum.ProductBoosts = make(map[string]int64, len(ctx.ProductRevenueBoosts))
		for id, v := range ctx.ProductRevenueBoosts {
			sum.ProductBoosts[id] = v
		}
	}
	for _, g := range ctx.DelayedCapital {
		sum.DelayedCapital += g.Amount
	}
	return sum
}
