package discount

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/effects"
)

// Mode selects whether a computation may consume one-shot sources.
type Mode int

const (
	// Preview computes the discount without touching any state.
	Preview Mode = iota
	// Consume zeroes every one-shot source that contributed to the result.
	Consume
)

// Input is the read-only view a source evaluates against.
type Input struct {
	Card    *card.Card
	Board   *card.Board
	Context *effects.Context
}

// Source is one independent cost modifier. Positive amounts reduce the cost,
// negative amounts increase it.
type Source struct {
	Name    string
	OneShot bool
	Amount  func(in Input) int
	Consume func(ctx *effects.Context, c *card.Card)
}

// Contribution is one source's share of a computed discount.
type Contribution struct {
	Source string
	Amount int
}

// Result is the outcome of a discount computation.
type Result struct {
	Raw           int
	Discount      int
	FinalCost     int
	Contributions []Contribution
}

// Resolver evaluates an ordered list of sources.
type Resolver struct {
	sources []Source
}

// NewResolver creates a resolver over the given sources, evaluated in order.
func NewResolver(sources ...Source) *Resolver {
	r := &Resolver{sources: make([]Source, 0, len(sources))}
	for _, s := range sources {
		r.AddSource(s)
	}
	return r
}

// AddSource appends a source. Sources without an Amount function are ignored.
func (r *Resolver) AddSource(s Source) {
	if s.Amount == nil {
		return
	}
	r.sources = append(r.sources, s)
}

// Compute sums every source's contribution for in.Card and clamps the total
// to [0, card.Cost]. In Consume mode each one-shot source with a non-zero
// contribution is consumed exactly once; in Preview mode nothing is mutated.
func (r *Resolver) Compute(in Input, mode Mode) Result {
	if in.Card == nil {
		return Result{}
	}
	if in.Board == nil {
		empty := card.NewBoard()
		in.Board = &empty
	}
	if in.Context == nil {
		in.Context = effects.NewContext()
		mode = Preview
	}

	res := Result{}
	var consumed []Source
	for _, s := range r.sources {
		amount := s.Amount(in)
		if amount == 0 {
			continue
		}
		res.Raw += amount
		res.Contributions = append(res.Contributions, Contribution{Source: s.Name, Amount: amount})
		if s.OneShot && s.Consume != nil {
			consumed = append(consumed, s)
		}
	}

	res.Discount = clamp(res.Raw, 0, maxInt(in.Card.Cost, 0))
	res.FinalCost = maxInt(in.Card.Cost, 0) - res.Discount

	if mode == Consume {
		for _, s := range consumed {
			s.Consume(in.Context, in.Card)
		}
	}
	return res
}

// Discount is shorthand for Compute(...).Discount.
func (r *Resolver) Discount(in Input, mode Mode) int {
	return r.Compute(in, mode).Discount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
