package discount

import (
	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/effects"
)

// Board-resident effect keys that act as discount sources.
const (
	EffectSerialOperator  = "serial_operator"
	EffectProcurementLead = "procurement_lead"
	EffectMorningStandup  = "morning_standup"
)

// Per-card cap of the serial operator reduction.
const serialOperatorMax = 3

// DefaultSources returns the standard source order.
func DefaultSources() []Source {
	return []Source{
		TypeFlat(),
		ProcurementLead(),
		SerialOperator(),
		FirstCardOfTurn(),
		NextTool(),
		NextCard(),
		CostToZero(),
		OpposingIncrease(),
	}
}

// NewDefaultResolver creates a resolver with DefaultSources.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultSources()...)
}

// TypeFlat applies this turn's flat reduction for the card's type.
func TypeFlat() Source {
	return Source{
		Name: "type_flat",
		Amount: func(in Input) int {
			return in.Context.TypeDiscounts[in.Card.Type]
		},
	}
}

// ProcurementLead makes tools cheaper by one per procurement lead on the board.
func ProcurementLead() Source {
	return Source{
		Name: EffectProcurementLead,
		Amount: func(in Input) int {
			if in.Card.Type != card.TypeTool {
				return 0
			}
			return in.Board.CountEffect(EffectProcurementLead)
		},
	}
}

// SerialOperator reduces products by one per product you control, at most 3,
// for each serial operator on the board.
func SerialOperator() Source {
	return Source{
		Name: EffectSerialOperator,
		Amount: func(in Input) int {
			if in.Card.Type != card.TypeProduct {
				return 0
			}
			operators := in.Board.CountEffect(EffectSerialOperator)
			if operators == 0 {
				return 0
			}
			per := len(in.Board.Products)
			if per > serialOperatorMax {
				per = serialOperatorMax
			}
			return operators * per
		},
	}
}

// FirstCardOfTurn discounts the first card played each turn.
func FirstCardOfTurn() Source {
	return Source{
		Name: EffectMorningStandup,
		Amount: func(in Input) int {
			if in.Context.CardsPlayedThisTurn > 0 {
				return 0
			}
			return in.Board.CountEffect(EffectMorningStandup)
		},
	}
}

// NextTool is the one-shot reduction on the next tool played.
func NextTool() Source {
	return Source{
		Name:    "next_tool",
		OneShot: true,
		Amount: func(in Input) int {
			if in.Card.Type != card.TypeTool {
				return 0
			}
			return in.Context.NextToolDiscount
		},
		Consume: func(ctx *effects.Context, _ *card.Card) {
			ctx.NextToolDiscount = 0
		},
	}
}

// NextCard is the one-shot reduction on the next card of any type.
func NextCard() Source {
	return Source{
		Name:    "next_card",
		OneShot: true,
		Amount: func(in Input) int {
			return in.Context.NextCardDiscount
		},
		Consume: func(ctx *effects.Context, _ *card.Card) {
			ctx.NextCardDiscount = 0
		},
	}
}

// CostToZero makes the next card free.
func CostToZero() Source {
	return Source{
		Name:    "cost_to_zero",
		OneShot: true,
		Amount: func(in Input) int {
			if !in.Context.NextCardFree {
				return 0
			}
			return in.Card.Cost
		},
		Consume: func(ctx *effects.Context, _ *card.Card) {
			ctx.NextCardFree = false
		},
	}
}

// OpposingIncrease subtracts the penalty an opponent imposed from the other
// sources. The total is still clamped at zero, so it shrinks discounts and
// never raises a cost above the printed one.
func OpposingIncrease() Source {
	return Source{
		Name: "opposing_increase",
		Amount: func(in Input) int {
			return -in.Context.CostIncrease
		},
	}
}
