package deck

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
)

// Zones is the card-holding part of a player: draw pile, hand, discard pile.
// The top of the deck is the tail of the slice.
type Zones struct {
	Hand    []*card.Card `json:"hand"`
	Deck    []*card.Card `json:"deck"`
	Discard []*card.Card `json:"discard"`
}

// Draw moves up to n cards from the tail of the deck to the hand, one at a
// time. An empty deck stops the draw early; that is not an error.
// The drawn cards are returned in draw order.
func Draw(z *Zones, n int) []*card.Card {
	n = max(n, 0)
	drawn := make([]*card.Card, 0, n)
	for i := 0; i < n; i++ {
		last := len(z.Deck) - 1
		if last < 0 {
			break
		}
		c := z.Deck[last]
		z.Deck[last] = nil
		z.Deck = z.Deck[:last]
		z.Hand = append(z.Hand, c)
		drawn = append(drawn, c)
	}
	return drawn
}

// TopN returns up to n cards from the top of the deck without moving them.
// The first element is the top card.
func TopN(z *Zones, n int) []*card.Card {
	n = max(n, 0)
	out := make([]*card.Card, 0, n)
	for i := len(z.Deck) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, z.Deck[i])
	}
	return out
}

// TakeFromHand removes and returns the hand card at index.
func TakeFromHand(z *Zones, index int) (*card.Card, bool) {
	if index < 0 || index >= len(z.Hand) {
		return nil, false
	}
	c := z.Hand[index]
	z.Hand = append(z.Hand[:index], z.Hand[index+1:]...)
	return c, true
}

// RemoveFromHand removes the hand card with the given ID.
func RemoveFromHand(z *Zones, id string) (*card.Card, bool) {
	for i, c := range z.Hand {
		if c.ID == id {
			return TakeFromHand(z, i)
		}
	}
	return nil, false
}

// RemoveFromDeck removes the deck card with the given ID.
func RemoveFromDeck(z *Zones, id string) (*card.Card, bool) {
	for i, c := range z.Deck {
		if c.ID == id {
			z.Deck = append(z.Deck[:i], z.Deck[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// DiscardCard puts the card on the discard pile.
func DiscardCard(z *Zones, c *card.Card) {
	if c == nil {
		return
	}
	z.Discard = append(z.Discard, c)
}

// Shuffler is the shuffle collaborator consumed by the engine.
type Shuffler interface {
	Shuffle(cards []*card.Card) []*card.Card
}

// RandomShuffler shuffles with a seeded PCG source.
type RandomShuffler struct {
	rng *rand.Rand
}

// NewRandomShuffler creates a shuffler. A zero seed draws one from crypto/rand.
func NewRandomShuffler(seed uint64) *RandomShuffler {
	if seed == 0 {
		seed = newSeed()
	}
	return &RandomShuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shuffle returns a shuffled copy of cards.
func (s *RandomShuffler) Shuffle(cards []*card.Card) []*card.Card {
	out := make([]*card.Card, len(cards))
	copy(out, cards)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ReshuffleDiscardIntoDeck shuffles the discard pile under the current deck.
// Drawing never calls this implicitly.
func ReshuffleDiscardIntoDeck(z *Zones, s Shuffler) {
	if len(z.Discard) == 0 {
		return
	}
	shuffled := z.Discard
	if s != nil {
		shuffled = s.Shuffle(z.Discard)
	}
	// Deck tail is the top, so the reshuffled cards go underneath.
	z.Deck = append(shuffled, z.Deck...)
	z.Discard = make([]*card.Card, 0)
}

func newSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0x5eed
	}
	return binary.LittleEndian.Uint64(b[:])
}
