package choice

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-server/internal/game/card"
)

// Kind describes what the player is asked to pick.
type Kind string

const (
	// KindSelectCard asks for exactly one of Cards.
	KindSelectCard Kind = "select_card"
	// KindSelectOption asks for exactly one of Options.
	KindSelectOption Kind = "select_option"
	// KindMultiSelect asks for up to Count of Cards, one pick per move.
	// Index -1 ends the selection early.
	KindMultiSelect Kind = "multi_select"
)

// Done is the index that finishes a multi-select.
const Done = -1

// PendingChoice is a suspended decision. Effect names the registry entry
// whose continuation runs once the player answers.
type PendingChoice struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"kind"`
	Effect     string       `json:"effect"`
	Prompt     string       `json:"prompt,omitempty"`
	Cards      []*card.Card `json:"cards,omitempty"`
	Options    []string     `json:"options,omitempty"`
	Count      int          `json:"count,omitempty"`
	SourceCard *card.Card   `json:"source_card,omitempty"`
	Picked     []string     `json:"picked,omitempty"`
}

// New creates a choice with a fresh ID.
func New(kind Kind, effect string) *PendingChoice {
	return &PendingChoice{
		ID:     uuid.NewString(),
		Kind:   kind,
		Effect: effect,
	}
}

// Size is the number of selectable entries.
func (pc *PendingChoice) Size() int {
	if pc.Kind == KindSelectOption {
		return len(pc.Options)
	}
	return len(pc.Cards)
}

// Validate checks an index against the choice's cardinality.
func (pc *PendingChoice) Validate(index int) error {
	if index == Done {
		if pc.Kind == KindMultiSelect {
			return nil
		}
		return fmt.Errorf("index %d only allowed for %s", index, KindMultiSelect)
	}
	if index < 0 || index >= pc.Size() {
		return fmt.Errorf("index %d out of range [0,%d)", index, pc.Size())
	}
	return nil
}

// OptionIndex resolves an option label to its index.
func (pc *PendingChoice) OptionIndex(label string) (int, bool) {
	for i, opt := range pc.Options {
		if opt == label {
			return i, true
		}
	}
	for i, c := range pc.Cards {
		if c.ID == label || c.Name == label {
			return i, true
		}
	}
	return 0, false
}

// Remaining is how many more picks a multi-select accepts.
func (pc *PendingChoice) Remaining() int {
	return pc.Count - len(pc.Picked)
}

// Without returns a copy of the choice with the card at index removed and
// recorded as picked. Used to re-queue a multi-select after one pick.
func (pc *PendingChoice) Without(index int) *PendingChoice {
	next := *pc
	next.Cards = make([]*card.Card, 0, len(pc.Cards)-1)
	next.Cards = append(next.Cards, pc.Cards[:index]...)
	next.Cards = append(next.Cards, pc.Cards[index+1:]...)
	next.Picked = append(append([]string(nil), pc.Picked...), pc.Cards[index].ID)
	return &next
}

// Queue is the per-player FIFO of pending choices.
type Queue struct {
	items []*PendingChoice
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{items: make([]*PendingChoice, 0, 4)}
}

// Enqueue appends a choice at the back.
func (q *Queue) Enqueue(pc *PendingChoice) {
	if pc == nil {
		return
	}
	q.items = append(q.items, pc)
}

// PushFront puts a choice at the head so it is answered next.
func (q *Queue) PushFront(pc *PendingChoice) {
	if pc == nil {
		return
	}
	q.items = append([]*PendingChoice{pc}, q.items...)
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (*PendingChoice, bool) {
	if q == nil || len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Dequeue removes and returns the head.
func (q *Queue) Dequeue() (*PendingChoice, bool) {
	if q == nil || len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return head, true
}

// Len returns the number of queued choices.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Awaiting reports whether the owner must answer a choice before acting.
func (q *Queue) Awaiting() bool {
	return q.Len() > 0
}

// Items returns a copy of the queued choices, head first.
func (q *Queue) Items() []*PendingChoice {
	if q == nil {
		return nil
	}
	cpy := make([]*PendingChoice, len(q.items))
	copy(cpy, q.items)
	return cpy
}

// MarshalJSON encodes the queue as a plain array.
func (q *Queue) MarshalJSON() ([]byte, error) {
	if q == nil || q.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q.items)
}

// UnmarshalJSON decodes a plain array.
func (q *Queue) UnmarshalJSON(data []byte) error {
	var items []*PendingChoice
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		items = make([]*PendingChoice, 0, 4)
	}
	q.items = items
	return nil
}
