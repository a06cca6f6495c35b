package effects

import (
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
)

// DefaultRecentSaleTTL is how long a sale stays in RecentlySold for UI feedback.
const DefaultRecentSaleTTL = 3 * time.Second

// DelayedGain is capital that arrives after a number of turn starts.
type DelayedGain struct {
	TurnsRemaining int    `json:"turns_remaining"`
	Amount         int64  `json:"amount"`
	SourceCardID   string `json:"source_card_id,omitempty"`
}

// RecentSale records a sale for transient UI signalling.
type RecentSale struct {
	CardID string    `json:"card_id"`
	At     time.Time `json:"at"`
}

// Context is the per-player bag of temporary modifiers.
//
// Every field carries a reset tag:
//   - turn: restored to its zero value by EndTurn
//   - persistent: survives EndTurn, cleared only when consumed by name
//   - snapshot: written by EndTurn from the matching "this turn" field
//   - timebox: pruned by wall-clock age, independent of turns
type Context struct {
	CardsPlayedThisTurn    int                 `json:"cards_played_this_turn" reset:"turn"`
	ProductsPlayedThisTurn int                 `json:"products_played_this_turn" reset:"turn"`
	ActionsPlayedThisTurn  int                 `json:"actions_played_this_turn" reset:"turn"`
	SoldProductThisTurn    bool                `json:"sold_product_this_turn" reset:"turn"`
	ItemsSoldThisTurn      int                 `json:"items_sold_this_turn" reset:"turn"`
	RevenueThisTurn        int64               `json:"revenue_this_turn" reset:"turn"`
	TypeDiscounts          map[card.Type]int   `json:"type_discounts" reset:"turn"`
	NextCardDiscount       int                 `json:"next_card_discount" reset:"turn"`
	NextCardFree           bool                `json:"next_card_free" reset:"turn"`
	CostIncrease           int                 `json:"cost_increase" reset:"turn"`
	SaleBonus              int64               `json:"sale_bonus" reset:"turn"`
	ProductRevenueBoosts   map[string]int64    `json:"product_revenue_boosts" reset:"turn"`
	ExtraSales             int                 `json:"extra_sales" reset:"turn"`

	DoubleCapitalNext     bool          `json:"double_capital_next" reset:"persistent"`
	NextToolDiscount      int           `json:"next_tool_discount" reset:"persistent"`
	RevenueMultiplierNext int           `json:"revenue_multiplier_next" reset:"persistent"`
	PreventDeactivation   int           `json:"prevent_deactivation" reset:"persistent"`
	DelayedCapital        []DelayedGain `json:"delayed_capital" reset:"persistent"`

	SoldProductLastTurn bool  `json:"sold_product_last_turn" reset:"snapshot"`
	ItemsSoldLastTurn   int   `json:"items_sold_last_turn" reset:"snapshot"`
	CardsPlayedLastTurn int   `json:"cards_played_last_turn" reset:"snapshot"`
	RevenueLastTurn     int64 `json:"revenue_last_turn" reset:"snapshot"`

	RecentlySold []RecentSale `json:"recently_sold" reset:"timebox"`
}

// NewContext returns a context with every field at its default.
func NewContext() *Context {
	return &Context{
		TypeDiscounts:        make(map[card.Type]int),
		ProductRevenueBoosts: make(map[string]int64),
		DelayedCapital:       make([]DelayedGain, 0),
		RecentlySold:         make([]RecentSale, 0),
	}
}

// EndTurn is the end-of-turn cleanup. It copies this-turn counters into the
// last-turn snapshot, resets every turn-scoped field, leaves persistent fields
// alone and prunes the timeboxed sales list.
func (c *Context) EndTurn(now time.Time, ttl time.Duration) {
	c.SoldProductLastTurn = c.SoldProductThisTurn
	c.ItemsSoldLastTurn = c.ItemsSoldThisTurn
	c.CardsPlayedLastTurn = c.CardsPlayedThisTurn
	c.RevenueLastTurn = c.RevenueThisTurn

	c.CardsPlayedThisTurn = 0
	c.ProductsPlayedThisTurn = 0
	c.ActionsPlayedThisTurn = 0
	c.SoldProductThisTurn = false
	c.ItemsSoldThisTurn = 0
	c.RevenueThisTurn = 0
	c.TypeDiscounts = make(map[card.Type]int)
	c.NextCardDiscount = 0
	c.NextCardFree = false
	c.CostIncrease = 0
	c.SaleBonus = 0
	c.ProductRevenueBoosts = make(map[string]int64)
	c.ExtraSales = 0

	c.PruneRecent(now, ttl)
}

// RecordSale updates the sale counters for one unit sold.
func (c *Context) RecordSale(cardID string, revenue int64, now time.Time) {
	c.SoldProductThisTurn = true
	c.ItemsSoldThisTurn++
	c.RevenueThisTurn += revenue
	c.RecentlySold = append(c.RecentlySold, RecentSale{CardID: cardID, At: now})
}

// PruneRecent drops sales older than ttl.
func (c *Context) PruneRecent(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultRecentSaleTTL
	}
	kept := c.RecentlySold[:0]
	for _, s := range c.RecentlySold {
		if now.Sub(s.At) < ttl {
			kept = append(kept, s)
		}
	}
	c.RecentlySold = kept
}

// RecentlySoldIDs returns card IDs sold within ttl of now, without pruning.
func (c *Context) RecentlySoldIDs(now time.Time, ttl time.Duration) []string {
	if ttl <= 0 {
		ttl = DefaultRecentSaleTTL
	}
	var ids []string
	for _, s := range c.RecentlySold {
		if now.Sub(s.At) < ttl {
			ids = append(ids, s.CardID)
		}
	}
	return ids
}

// AddTypeDiscount stacks a flat reduction for one card type this turn.
func (c *Context) AddTypeDiscount(t card.Type, amount int) {
	if c.TypeDiscounts == nil {
		c.TypeDiscounts = make(map[card.Type]int)
	}
	c.TypeDiscounts[t] += amount
}

// BoostProduct adds revenue to a product's sales for this turn.
func (c *Context) BoostProduct(cardID string, amount int64) {
	if c.ProductRevenueBoosts == nil {
		c.ProductRevenueBoosts = make(map[string]int64)
	}
	c.ProductRevenueBoosts[cardID] += amount
}

// ScheduleCapital queues capital to arrive after turns turn starts.
func (c *Context) ScheduleCapital(turns int, amount int64, sourceID string) {
	if turns < 1 {
		turns = 1
	}
	c.DelayedCapital = append(c.DelayedCapital, DelayedGain{
		TurnsRemaining: turns,
		Amount:         amount,
		SourceCardID:   sourceID,
	})
}

// TickDelayed counts every delayed gain down by one turn and returns the sum
// of the gains that matured.
func (c *Context) TickDelayed() int64 {
	var matured int64
	pending := c.DelayedCapital[:0]
	for _, g := range c.DelayedCapital {
		g.TurnsRemaining--
		if g.TurnsRemaining <= 0 {
			matured += g.Amount
			continue
		}
		pending = append(pending, g)
	}
	c.DelayedCapital = pending
	return matured
}

// ConsumeDoubleCapital clears the double-capital flag and reports whether it was set.
func (c *Context) ConsumeDoubleCapital() bool {
	if !c.DoubleCapitalNext {
		return false
	}
	c.DoubleCapitalNext = false
	return true
}

// ConsumeRevenueMultiplier returns the pending sale multiplier (1 if none) and clears it.
func (c *Context) ConsumeRevenueMultiplier() int64 {
	m := c.RevenueMultiplierNext
	c.RevenueMultiplierNext = 0
	if m < 2 {
		return 1
	}
	return int64(m)
}

// ConsumePreventDeactivation spends one deactivation shield if available.
func (c *Context) ConsumePreventDeactivation() bool {
	if c.PreventDeactivation <= 0 {
		return false
	}
	c.PreventDeactivation--
	return true
}
