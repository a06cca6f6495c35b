package effects

import (
	"reflect"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(now time.Time) *Context {
	c := NewContext()
	c.CardsPlayedThisTurn = 3
	c.ProductsPlayedThisTurn = 1
	c.ActionsPlayedThisTurn = 2
	c.SoldProductThisTurn = true
	c.ItemsSoldThisTurn = 4
	c.RevenueThisTurn = 2500
	c.AddTypeDiscount(card.TypeTool, 1)
	c.NextCardDiscount = 2
	c.NextCardFree = true
	c.CostIncrease = 1
	c.SaleBonus = 500
	c.BoostProduct("p1", 1000)
	c.ExtraSales = 1

	c.DoubleCapitalNext = true
	c.NextToolDiscount = 2
	c.RevenueMultiplierNext = 2
	c.PreventDeactivation = 1
	c.ScheduleCapital(2, 4, "src")

	c.RecentlySold = []RecentSale{
		{CardID: "old", At: now.Add(-time.Minute)},
		{CardID: "fresh", At: now.Add(-time.Second)},
	}
	return c
}

func TestEveryFieldHasResetPolicy(t *testing.T) {
	typ := reflect.TypeOf(Context{})
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		policy := f.Tag.Get("reset")
		switch policy {
		case "turn", "persistent", "snapshot", "timebox":
		default:
			t.Fatalf("field %s has no valid reset policy (got %q)", f.Name, policy)
		}
	}
}

func TestEndTurnResetsTurnScopedFields(t *testing.T) {
	now := time.Now()
	c := populated(now)
	before := *c
	before.DelayedCapital = append([]DelayedGain(nil), c.DelayedCapital...)

	c.EndTurn(now, DefaultRecentSaleTTL)

	defaults := reflect.ValueOf(*NewContext())
	got := reflect.ValueOf(*c)
	prev := reflect.ValueOf(before)
	typ := got.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		switch f.Tag.Get("reset") {
		case "turn":
			assert.Equal(t, defaults.Field(i).Interface(), got.Field(i).Interface(), "turn field %s not reset", f.Name)
		case "persistent":
			assert.Equal(t, prev.Field(i).Interface(), got.Field(i).Interface(), "persistent field %s changed", f.Name)
		}
	}
}

func TestEndTurnSnapshotsLastTurn(t *testing.T) {
	now := time.Now()
	c := populated(now)

	c.EndTurn(now, DefaultRecentSaleTTL)

	assert.True(t, c.SoldProductLastTurn)
	assert.Equal(t, 4, c.ItemsSoldLastTurn)
	assert.Equal(t, 3, c.CardsPlayedLastTurn)
	assert.Equal(t, int64(2500), c.RevenueLastTurn)

	c.EndTurn(now, DefaultRecentSaleTTL)
	assert.False(t, c.SoldProductLastTurn)
	assert.Equal(t, 0, c.ItemsSoldLastTurn)
}

func TestRecentlySoldPrunedByAge(t *testing.T) {
	now := time.Now()
	c := populated(now)

	c.EndTurn(now, DefaultRecentSaleTTL)

	require.Len(t, c.RecentlySold, 1)
	assert.Equal(t, "fresh", c.RecentlySold[0].CardID)
	assert.Empty(t, c.RecentlySoldIDs(now.Add(time.Hour), DefaultRecentSaleTTL))
}

func TestTickDelayed(t *testing.T) {
	c := NewContext()
	c.ScheduleCapital(2, 4, "a")
	c.ScheduleCapital(1, 3, "b")

	assert.Equal(t, int64(3), c.TickDelayed())
	require.Len(t, c.DelayedCapital, 1)
	assert.Equal(t, int64(4), c.TickDelayed())
	assert.Empty(t, c.DelayedCapital)
	assert.Equal(t, int64(0), c.TickDelayed())
}

func TestOneShotConsumption(t *testing.T) {
	c := NewContext()
	assert.False(t, c.ConsumeDoubleCapital())
	c.DoubleCapitalNext = true
	assert.True(t, c.ConsumeDoubleCapital())
	assert.False(t, c.ConsumeDoubleCapital())

	assert.Equal(t, int64(1), c.ConsumeRevenueMultiplier())
	c.RevenueMultiplierNext = 3
	assert.Equal(t, int64(3), c.ConsumeRevenueMultiplier())
	assert.Equal(t, int64(1), c.ConsumeRevenueMultiplier())

	c.PreventDeactivation = 1
	assert.True(t, c.ConsumePreventDeactivation())
	assert.False(t, c.ConsumePreventDeactivation())
}

func TestRecordSale(t *testing.T) {
	c := NewContext()
	c.RecordSale("p1", 1000, time.Now())
	assert.True(t, c.SoldProductThisTurn)
	assert.Equal(t, 1, c.ItemsSoldThisTurn)
	assert.Equal(t, int64(1000), c.RevenueThisTurn)
	assert.Len(t, c.RecentlySold, 1)
}
