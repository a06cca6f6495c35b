package card

// Board holds the cards a player has in play, one slice per zone.
type Board struct {
	Tools     []*Card `json:"tools"`
	Products  []*Card `json:"products"`
	Employees []*Card `json:"employees"`
}

// NewBoard creates an empty board.
func NewBoard() Board {
	return Board{
		Tools:     make([]*Card, 0),
		Products:  make([]*Card, 0),
		Employees: make([]*Card, 0),
	}
}

// All returns every card on the board in scan order: tools, products, employees.
func (b *Board) All() []*Card {
	all := make([]*Card, 0, len(b.Tools)+len(b.Products)+len(b.Employees))
	all = append(all, b.Tools...)
	all = append(all, b.Products...)
	all = append(all, b.Employees...)
	return all
}

// Place puts a card into the zone matching its type.
// Actions have no zone and are reported as not placed.
func (b *Board) Place(c *Card) bool {
	switch c.Type {
	case TypeTool:
		b.Tools = append(b.Tools, c)
	case TypeProduct:
		c.IsActive = true
		b.Products = append(b.Products, c)
	case TypeEmployee:
		b.Employees = append(b.Employees, c)
	default:
		return false
	}
	return true
}

// Find returns the card with the given ID from any zone.
func (b *Board) Find(id string) (*Card, bool) {
	for _, c := range b.All() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Remove takes the card with the given ID out of its zone.
func (b *Board) Remove(id string) (*Card, bool) {
	for _, zone := range []*[]*Card{&b.Tools, &b.Products, &b.Employees} {
		for i, c := range *zone {
			if c.ID == id {
				*zone = append((*zone)[:i], (*zone)[i+1:]...)
				return c, true
			}
		}
	}
	return nil, false
}

// ActiveProducts returns products that are currently active.
func (b *Board) ActiveProducts() []*Card {
	var out []*Card
	for _, c := range b.Products {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// CountEffect counts board cards carrying the given effect key.
func (b *Board) CountEffect(effect string) int {
	n := 0
	for _, c := range b.All() {
		if c.Effect == effect {
			n++
		}
	}
	return n
}

// HasEffect reports whether any board card carries the effect key.
func (b *Board) HasEffect(effect string) bool {
	return b.CountEffect(effect) > 0
}
