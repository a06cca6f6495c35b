// Package catalog loads card templates, heroes and starter decks from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"gopkg.in/yaml.v3"
)

//go:embed default_cards.yaml
var defaultData []byte

// CardDef is one card template as written in the catalogue file.
type CardDef struct {
	Key            string `yaml:"key" json:"key"`
	Name           string `yaml:"name" json:"name"`
	Type           string `yaml:"type" json:"type"`
	Cost           int    `yaml:"cost" json:"cost"`
	Effect         string `yaml:"effect,omitempty" json:"effect,omitempty"`
	Text           string `yaml:"text,omitempty" json:"text,omitempty"`
	Inventory      int    `yaml:"inventory,omitempty" json:"inventory,omitempty"`
	RevenuePerSale int64  `yaml:"revenue_per_sale,omitempty" json:"revenue_per_sale,omitempty"`
	OverheadCost   int    `yaml:"overhead_cost,omitempty" json:"overhead_cost,omitempty"`
	Appeal         int    `yaml:"appeal,omitempty" json:"appeal,omitempty"`
}

// HeroDef is a hero and the effect key of its once-per-turn ability.
type HeroDef struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Ability string `yaml:"ability" json:"ability"`
	Text    string `yaml:"text,omitempty" json:"text,omitempty"`
}

// DeckEntry is a card key and how many copies a starter deck holds.
type DeckEntry struct {
	Card  string `yaml:"card" json:"card"`
	Count int    `yaml:"count" json:"count"`
}

// Catalog is the parsed catalogue with lookup indexes.
type Catalog struct {
	Version      string                 `yaml:"version" json:"version"`
	Cards        []CardDef              `yaml:"cards" json:"cards"`
	Heroes       []HeroDef              `yaml:"heroes" json:"heroes"`
	StarterDecks map[string][]DeckEntry `yaml:"starter_decks" json:"starter_decks"`

	templates map[string]card.Template
	heroes    map[string]HeroDef
}

// Default returns the catalogue compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// Load reads a catalogue file. An empty path loads the default catalogue.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and indexes a catalogue.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.templates = make(map[string]card.Template, len(c.Cards))
	for _, def := range c.Cards {
		if def.Key == "" {
			return fmt.Errorf("card %q has no key", def.Name)
		}
		if _, dup := c.templates[def.Key]; dup {
			return fmt.Errorf("duplicate card key %s", def.Key)
		}
		typ, err := card.ParseType(def.Type)
		if err != nil {
			return fmt.Errorf("card %s: %w", def.Key, err)
		}
		if def.Cost < 0 {
			return fmt.Errorf("card %s: negative cost", def.Key)
		}
		name := def.Name
		if name == "" {
			name = def.Key
		}
		c.templates[def.Key] = card.Template{
			Key:            def.Key,
			Name:           name,
			Cost:           def.Cost,
			Type:           typ,
			Effect:         def.Effect,
			Text:           def.Text,
			Inventory:      def.Inventory,
			RevenuePerSale: def.RevenuePerSale,
			OverheadCost:   def.OverheadCost,
			Appeal:         def.Appeal,
		}
	}

	c.heroes = make(map[string]HeroDef, len(c.Heroes))
	for _, h := range c.Heroes {
		if h.ID == "" {
			return fmt.Errorf("hero %q has no id", h.Name)
		}
		if _, dup := c.heroes[h.ID]; dup {
			return fmt.Errorf("duplicate hero %s", h.ID)
		}
		c.heroes[h.ID] = h
	}

	for name, entries := range c.StarterDecks {
		for _, e := range entries {
			if _, ok := c.templates[e.Card]; !ok {
				return fmt.Errorf("starter deck %s references unknown card %s", name, e.Card)
			}
			if e.Count <= 0 {
				return fmt.Errorf("starter deck %s: card %s has count %d", name, e.Card, e.Count)
			}
		}
	}
	return nil
}

// Template returns the template of a card key.
func (c *Catalog) Template(key string) (card.Template, bool) {
	t, ok := c.templates[key]
	return t, ok
}

// Hero returns a hero by ID.
func (c *Catalog) Hero(id string) (HeroDef, bool) {
	h, ok := c.heroes[id]
	return h, ok
}

// DeckNames lists the starter decks in name order.
func (c *Catalog) DeckNames() []string {
	names := make([]string, 0, len(c.StarterDecks))
	for name := range c.StarterDecks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownEffects returns effect keys used by cards or heroes that the engine
// has no resolver for. Such effects play as no-ops.
func (c *Catalog) UnknownEffects() []string {
	seen := make(map[string]bool)
	var unknown []string
	check := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		if _, ok := game.LookupEffect(key); !ok {
			unknown = append(unknown, key)
		}
	}
	for _, def := range c.Cards {
		check(def.Effect)
	}
	for _, h := range c.Heroes {
		check(h.Ability)
	}
	sort.Strings(unknown)
	return unknown
}

// BuildDeck instantiates a starter deck. Every card gets a fresh ID.
func (c *Catalog) BuildDeck(name string) ([]*card.Card, error) {
	entries, ok := c.StarterDecks[name]
	if !ok {
		return nil, fmt.Errorf("unknown starter deck %s", name)
	}
	var cards []*card.Card
	for _, e := range entries {
		t := c.templates[e.Card]
		for i := 0; i < e.Count; i++ {
			cards = append(cards, card.New(t))
		}
	}
	return cards, nil
}

// Seat builds a game seat for a player with the given hero and starter deck.
func (c *Catalog) Seat(playerID, name, heroID, deckName string) (game.Seat, error) {
	h, ok := c.Hero(heroID)
	if !ok {
		return game.Seat{}, fmt.Errorf("unknown hero %s", heroID)
	}
	cards, err := c.BuildDeck(deckName)
	if err != nil {
		return game.Seat{}, err
	}
	return game.Seat{
		ID:          playerID,
		Name:        name,
		Hero:        game.HeroID(h.ID),
		HeroAbility: h.Ability,
		Deck:        cards,
	}, nil
}
