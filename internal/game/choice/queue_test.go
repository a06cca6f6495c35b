package choice

import (
	"encoding/json"
	"testing"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(n int) []*card.Card {
	out := make([]*card.Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, card.New(card.Template{Key: "p", Name: "Product", Type: card.TypeProduct}))
	}
	return out
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	a := New(KindSelectCard, "a")
	b := New(KindSelectCard, "b")
	q.Enqueue(a)
	q.Enqueue(b)

	var resolved []string
	for q.Len() > 0 {
		head, ok := q.Dequeue()
		require.True(t, ok)
		resolved = append(resolved, head.Effect)
	}

	assert.Equal(t, []string{"a", "b"}, resolved)
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestQueuePushFront(t *testing.T) {
	q := NewQueue()
	q.Enqueue(New(KindSelectCard, "first"))
	q.Enqueue(New(KindSelectCard, "second"))
	q.PushFront(New(KindMultiSelect, "again"))

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "again", head.Effect)
	assert.Equal(t, 3, q.Len())
	assert.True(t, q.Awaiting())
}

func TestValidate(t *testing.T) {
	pc := New(KindSelectCard, "x")
	pc.Cards = cards(2)

	assert.NoError(t, pc.Validate(0))
	assert.NoError(t, pc.Validate(1))
	assert.Error(t, pc.Validate(2))
	assert.Error(t, pc.Validate(Done))
	assert.Error(t, pc.Validate(-2))

	multi := New(KindMultiSelect, "y")
	multi.Cards = cards(1)
	assert.NoError(t, multi.Validate(Done))

	opts := New(KindSelectOption, "z")
	opts.Options = []string{"capital", "inventory"}
	assert.NoError(t, opts.Validate(1))
	assert.Error(t, opts.Validate(2))
}

func TestOptionIndex(t *testing.T) {
	pc := New(KindSelectOption, "z")
	pc.Options = []string{"capital", "inventory"}

	idx, ok := pc.OptionIndex("inventory")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = pc.OptionIndex("missing")
	assert.False(t, ok)
}

func TestWithoutRecordsPick(t *testing.T) {
	pc := New(KindMultiSelect, "audit")
	pc.Cards = cards(3)
	pc.Count = 2
	picked := pc.Cards[1].ID

	next := pc.Without(1)

	assert.Len(t, pc.Cards, 3, "original untouched")
	assert.Len(t, next.Cards, 2)
	assert.Equal(t, []string{picked}, next.Picked)
	assert.Equal(t, 1, next.Remaining())
	assert.Equal(t, pc.ID, next.ID)
}

func TestQueueJSON(t *testing.T) {
	q := NewQueue()
	pc := New(KindSelectOption, "big_launch")
	pc.Options = []string{"a", "b"}
	q.Enqueue(pc)

	data, err := json.Marshal(q)
	require.NoError(t, err)

	restored := NewQueue()
	require.NoError(t, json.Unmarshal(data, restored))
	head, ok := restored.Peek()
	require.True(t, ok)
	assert.Equal(t, pc.ID, head.ID)
	assert.Equal(t, pc.Options, head.Options)

	empty, err := json.Marshal(NewQueue())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(empty))
}
