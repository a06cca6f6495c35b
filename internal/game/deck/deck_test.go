package deck

import (
	"testing"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCards(n int) []*card.Card {
	cards := make([]*card.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, card.New(card.Template{Key: "filler", Name: "Filler", Type: card.TypeAction}))
	}
	return cards
}

func TestDrawTakesFromTail(t *testing.T) {
	cards := makeCards(3)
	z := &Zones{Deck: append([]*card.Card(nil), cards...)}

	drawn := Draw(z, 2)

	require.Len(t, drawn, 2)
	assert.Equal(t, cards[2].ID, drawn[0].ID)
	assert.Equal(t, cards[1].ID, drawn[1].ID)
	assert.Len(t, z.Deck, 1)
	assert.Len(t, z.Hand, 2)
}

func TestDrawIsPartialWhenDeckShort(t *testing.T) {
	z := &Zones{Deck: makeCards(1)}

	drawn := Draw(z, 3)

	assert.Len(t, drawn, 1)
	assert.Len(t, z.Hand, 1)
	assert.Empty(t, z.Deck)
}

func TestDrawFromEmptyDeck(t *testing.T) {
	z := &Zones{}
	drawn := Draw(z, 5)
	assert.Empty(t, drawn)
	assert.Empty(t, z.Hand)
}

func TestNegativeCountsAreEmpty(t *testing.T) {
	z := &Zones{Deck: makeCards(3)}

	assert.Empty(t, Draw(z, -1))
	assert.Empty(t, TopN(z, -5))
	assert.Len(t, z.Deck, 3)
	assert.Empty(t, z.Hand)
}

func TestDrawNeverReshuffles(t *testing.T) {
	z := &Zones{Discard: makeCards(4)}
	Draw(z, 2)
	assert.Len(t, z.Discard, 4)
	assert.Empty(t, z.Hand)
}

func TestTopNDoesNotMove(t *testing.T) {
	cards := makeCards(4)
	z := &Zones{Deck: append([]*card.Card(nil), cards...)}

	top := TopN(z, 2)

	require.Len(t, top, 2)
	assert.Equal(t, cards[3].ID, top[0].ID)
	assert.Len(t, z.Deck, 4)
}

func TestTakeFromHandBounds(t *testing.T) {
	z := &Zones{Hand: makeCards(2)}
	_, ok := TakeFromHand(z, 2)
	assert.False(t, ok)
	_, ok = TakeFromHand(z, -1)
	assert.False(t, ok)
	c, ok := TakeFromHand(z, 0)
	assert.True(t, ok)
	assert.NotNil(t, c)
	assert.Len(t, z.Hand, 1)
}

func TestReshuffleDiscardIntoDeck(t *testing.T) {
	top := makeCards(1)
	z := &Zones{Deck: top, Discard: makeCards(3)}

	ReshuffleDiscardIntoDeck(z, NewRandomShuffler(42))

	assert.Len(t, z.Deck, 4)
	assert.Empty(t, z.Discard)
	assert.Equal(t, top[0].ID, z.Deck[3].ID, "existing deck stays on top")
}

func TestRandomShufflerIsDeterministicForSeed(t *testing.T) {
	cards := makeCards(10)
	a := NewRandomShuffler(7).Shuffle(cards)
	b := NewRandomShuffler(7).Shuffle(cards)
	assert.Equal(t, card.IDs(a), card.IDs(b))
	assert.ElementsMatch(t, card.IDs(cards), card.IDs(a))
}
