package game

import (
	"fmt"
	"strings"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/deck"
	"github.com/ledgerline/ledgerline-server/internal/game/discount"
	"github.com/ledgerline/ledgerline-server/internal/game/rules"
	"go.uber.org/zap"
)

// MoveType names an inbound move.
type MoveType string

const (
	MovePlayCard       MoveType = "PLAY_CARD"
	MoveUseHeroAbility MoveType = "USE_HERO_ABILITY"
	MoveMakeChoice     MoveType = "MAKE_CHOICE"
	MoveEndTurn        MoveType = "END_TURN"
)

// Move is a validated (player, action) tuple from the move-dispatch layer.
type Move struct {
	Type        MoveType `json:"type"`
	PlayerID    string   `json:"player_id"`
	HandIndex   int      `json:"hand_index,omitempty"`
	ChoiceIndex int      `json:"choice_index,omitempty"`
	OptionLabel string   `json:"option_label,omitempty"`
}

// ParseMoveType accepts move names in any case.
func ParseMoveType(value string) (MoveType, error) {
	switch mt := MoveType(strings.ToUpper(strings.TrimSpace(value))); mt {
	case MovePlayCard, MoveUseHeroAbility, MoveMakeChoice, MoveEndTurn:
		return mt, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMove, value)
	}
}

// Apply dispatches a move.
func (e *Engine) Apply(gs *GameState, m Move) error {
	switch m.Type {
	case MovePlayCard:
		return e.PlayCard(gs, m.PlayerID, m.HandIndex)
	case MoveUseHeroAbility:
		return e.UseHeroAbility(gs, m.PlayerID)
	case MoveMakeChoice:
		return e.MakeChoice(gs, m.PlayerID, m.ChoiceIndex, m.OptionLabel)
	case MoveEndTurn:
		return e.EndTurn(gs, m.PlayerID)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMove, m.Type)
	}
}

// PlayCard plays the hand card at handIndex: pay the discounted cost, move it
// to its zone, count the play, run its on-play effect, fire reactive board
// effects, then check for game end.
func (e *Engine) PlayCard(gs *GameState, playerID string, handIndex int) error {
	p, err := e.checkActive(gs, playerID)
	if err != nil {
		return err
	}
	if handIndex < 0 || handIndex >= len(p.Hand) {
		return fmt.Errorf("%w: %d", ErrInvalidHandIndex, handIndex)
	}

	c := p.Hand[handIndex]
	preview := e.CardCost(gs, p, c)
	if int64(preview.FinalCost) > p.Capital {
		return fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientCapital, c.Name, preview.FinalCost, p.Capital)
	}

	ctx := gs.Context(p.ID)
	paid := e.discounts.Compute(discount.Input{Card: c, Board: &p.Board, Context: ctx}, discount.Consume)
	p.Spend(int64(paid.FinalCost))
	deck.TakeFromHand(&p.Zones, handIndex)
	if paid.FinalCost > 0 {
		e.publish(gs, rules.NewEventWithAmount(rules.EventCapitalChanged, p.ID, c.ID, "", -int64(paid.FinalCost)))
	}

	if !p.Board.Place(c) {
		deck.DiscardCard(&p.Zones, c)
	}

	ctx.CardsPlayedThisTurn++
	switch c.Type {
	case card.TypeProduct:
		ctx.ProductsPlayedThisTurn++
	case card.TypeAction:
		ctx.ActionsPlayedThisTurn++
	}

	evt := rules.NewEventWithAmount(rules.EventCardPlayed, p.ID, c.ID, "", int64(paid.FinalCost))
	evt.Data = c.Key
	e.publish(gs, evt)
	e.logger.Debug("card played",
		zap.String("game_id", gs.ID),
		zap.String("player_id", p.ID),
		zap.String("card", c.Key),
		zap.Int("cost", c.Cost),
		zap.Int("paid", paid.FinalCost),
	)

	if _, h, ok := e.lookup(gs, p, c.Effect, c.ID); ok && h.OnPlay != nil {
		h.OnPlay(e, gs, p, c)
	}

	for _, other := range p.Board.All() {
		if other.ID == c.ID {
			continue
		}
		if _, h, ok := e.lookup(gs, p, other.Effect, other.ID); ok && h.Reactive != nil {
			h.Reactive(e, gs, p, other, c)
		}
	}

	e.CheckGameEnd(gs)
	return nil
}

// UseHeroAbility fires the player's hero ability once per turn.
func (e *Engine) UseHeroAbility(gs *GameState, playerID string) error {
	p, err := e.checkActive(gs, playerID)
	if err != nil {
		return err
	}
	if p.HeroAbilityUsed {
		return ErrHeroAbilityUsed
	}

	p.HeroAbilityUsed = true
	evt := rules.NewEvent(rules.EventHeroAbilityUsed, p.ID, "", "")
	evt.Data = p.HeroAbility
	e.publish(gs, evt)

	if _, h, ok := e.lookup(gs, p, p.HeroAbility, string(p.Hero)); ok && h.OnPlay != nil {
		h.OnPlay(e, gs, p, nil)
	}
	e.CheckGameEnd(gs)
	return nil
}

// MakeChoice answers the head of the player's choice queue. A non-empty
// optionLabel selects by label instead of index. An invalid answer is
// rejected and the choice stays queued.
func (e *Engine) MakeChoice(gs *GameState, playerID string, index int, optionLabel string) error {
	p, err := e.checkActor(gs, playerID)
	if err != nil {
		return err
	}
	head, ok := p.PendingChoices.Peek()
	if !ok {
		return ErrNoPendingChoice
	}
	if optionLabel != "" {
		idx, found := head.OptionIndex(optionLabel)
		if !found {
			return fmt.Errorf("%w: no option %q", ErrInvalidChoice, optionLabel)
		}
		index = idx
	}
	if err := head.Validate(index); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}

	p.PendingChoices.Dequeue()
	evt := rules.NewEventWithAmount(rules.EventChoiceResolved, p.ID, head.ID, "", int64(index))
	evt.Data = head.Effect
	e.publish(gs, evt)

	if _, h, ok := e.lookup(gs, p, head.Effect, head.ID); ok && h.Continue != nil {
		h.Continue(e, gs, p, head, index)
	}
	e.CheckGameEnd(gs)
	return nil
}

// EndTurn runs cleanup for the active player and starts the next turn.
func (e *Engine) EndTurn(gs *GameState, playerID string) error {
	p, err := e.checkActive(gs, playerID)
	if err != nil {
		return err
	}
	e.cleanup(gs, p)
	return nil
}

// multiSelectStep handles one answer to a multi-select: Done finishes, a pick
// applies and re-queues the rest at the front while picks remain.
func (e *Engine) multiSelectStep(gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int, apply func(*card.Card)) {
	if index == choice.Done || pc.Kind != choice.KindMultiSelect {
		if index >= 0 {
			apply(pc.Cards[index])
		}
		return
	}
	picked := pc.Cards[index]
	rest := pc.Without(index)
	apply(picked)
	if rest.Remaining() > 0 && len(rest.Cards) > 0 {
		p.PendingChoices.PushFront(rest)
		e.publish(gs, rules.NewEvent(rules.EventChoiceQueued, p.ID, rest.ID, ""))
	}
}
