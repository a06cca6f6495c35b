package game

import (
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type identityShuffler struct{}

func (identityShuffler) Shuffle(cards []*card.Card) []*card.Card {
	return append([]*card.Card(nil), cards...)
}

type eventLog struct {
	mu     sync.Mutex
	events []rules.Event
}

func (l *eventLog) record(evt rules.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) types() []rules.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]rules.EventType, 0, len(l.events))
	for _, evt := range l.events {
		out = append(out, evt.Type)
	}
	return out
}

func (l *eventLog) count(t rules.EventType) int {
	n := 0
	for _, et := range l.types() {
		if et == t {
			n++
		}
	}
	return n
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *eventLog) {
	t.Helper()
	bus := rules.NewEventBus()
	log := &eventLog{}
	bus.Subscribe(log.record)
	e := NewEngine(zaptest.NewLogger(t),
		WithShuffler(identityShuffler{}),
		WithEventBus(bus),
		WithClock(func() time.Time { return fixedNow }),
	)
	return e, log
}

func testRules() RulesConfig {
	r := DefaultRules()
	r.OpeningHand = 0
	r.DrawPerTurn = 0
	return r
}

func filler(n int) []*card.Card {
	out := make([]*card.Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, card.New(card.Template{Key: "memo", Name: "Memo", Type: card.TypeAction, Cost: 1}))
	}
	return out
}

// newTestGame seats alice and bob with a few filler cards in each deck so
// the stalemate check stays quiet.
func newTestGame(t *testing.T) *GameState {
	t.Helper()
	gs, err := NewGameState("g1", testRules(), []Seat{
		{ID: "alice", Hero: "founder", HeroAbility: "founder_grit", Deck: filler(5)},
		{ID: "bob", Hero: "visionary", HeroAbility: "brand_vision", Deck: filler(5)},
	})
	require.NoError(t, err)
	return gs
}

func mustPlayer(t *testing.T, gs *GameState, id string) *PlayerState {
	t.Helper()
	p, err := gs.Player(id)
	require.NoError(t, err)
	return p
}

func newCard(key string, typ card.Type, cost int, effect string) *card.Card {
	return card.New(card.Template{Key: key, Name: key, Type: typ, Cost: cost, Effect: effect})
}

func newProduct(inventory int, revenuePerSale int64) *card.Card {
	return card.New(card.Template{
		Key:            "widget",
		Name:           "Widget",
		Type:           card.TypeProduct,
		Cost:           2,
		Inventory:      inventory,
		RevenuePerSale: revenuePerSale,
	})
}

// onBoard places cards directly, bypassing play.
func onBoard(p *PlayerState, cards ...*card.Card) {
	for _, c := range cards {
		p.Board.Place(c)
	}
}
