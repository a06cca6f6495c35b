package card

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type is the card category. It decides which board zone a played card lands in.
type Type string

const (
	TypeProduct  Type = "PRODUCT"
	TypeTool     Type = "TOOL"
	TypeEmployee Type = "EMPLOYEE"
	TypeAction   Type = "ACTION"
)

// ParseType converts a catalogue string into a Type.
func ParseType(value string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(value))) {
	case TypeProduct:
		return TypeProduct, nil
	case TypeTool:
		return TypeTool, nil
	case TypeEmployee:
		return TypeEmployee, nil
	case TypeAction:
		return TypeAction, nil
	default:
		return "", fmt.Errorf("unknown card type %q", value)
	}
}

// Template is the immutable catalogue definition of a card.
type Template struct {
	Key            string
	Name           string
	Cost           int
	Type           Type
	Effect         string
	Text           string
	Inventory      int
	RevenuePerSale int64
	OverheadCost   int
	Appeal         int
}

// Card is a single card instance. The ID is stable across zone moves.
type Card struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Cost   int    `json:"cost"`
	Type   Type   `json:"type"`
	Effect string `json:"effect,omitempty"`
	Text   string `json:"text,omitempty"`

	// Product fields
	Inventory      int   `json:"inventory,omitempty"`
	RevenuePerSale int64 `json:"revenue_per_sale,omitempty"`
	OverheadCost   int   `json:"overhead_cost,omitempty"`
	IsActive       bool  `json:"is_active,omitempty"`
	Appeal         int   `json:"appeal,omitempty"`
}

// New instantiates a card from its template with a fresh ID.
func New(t Template) *Card {
	c := &Card{
		ID:             uuid.NewString(),
		Key:            t.Key,
		Name:           t.Name,
		Cost:           t.Cost,
		Type:           t.Type,
		Effect:         t.Effect,
		Text:           t.Text,
		RevenuePerSale: t.RevenuePerSale,
		OverheadCost:   t.OverheadCost,
		Appeal:         t.Appeal,
	}
	c.SetInventory(t.Inventory)
	return c
}

// Clone copies the card under a new ID. Used by effects that create copies.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cpy := *c
	cpy.ID = uuid.NewString()
	return &cpy
}

// IsProduct reports whether the card is a product.
func (c *Card) IsProduct() bool {
	return c != nil && c.Type == TypeProduct
}

// SetInventory sets the stock counter, clamping negatives to zero.
func (c *Card) SetInventory(v int) {
	if v < 0 {
		v = 0
	}
	c.Inventory = v
}

// AddInventory adjusts the stock counter by delta and returns the new value.
func (c *Card) AddInventory(delta int) int {
	c.SetInventory(c.Inventory + delta)
	return c.Inventory
}

// CanSell reports whether automatic sales may take a unit from this product.
func (c *Card) CanSell() bool {
	return c.IsProduct() && c.IsActive && c.Inventory > 0
}

// IDs returns the IDs of the given cards in order.
func IDs(cards []*Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}
