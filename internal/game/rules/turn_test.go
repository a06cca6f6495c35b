package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseSequence(t *testing.T) {
	expected := []Phase{
		PhaseTurnStart,
		PhasePassive,
		PhaseOverhead,
		PhaseSales,
		PhaseActions,
		PhaseCleanup,
	}
	assert.Equal(t, expected, Sequence())

	seq := Sequence()
	seq[0] = PhaseCleanup
	assert.Equal(t, PhaseTurnStart, Sequence()[0], "callers get a copy")
}

func TestOnlyActionsWaitForPlayer(t *testing.T) {
	for _, p := range Sequence() {
		assert.Equal(t, p != PhaseActions, p.IsAutomatic(), p.String())
	}
}

func TestPhaseJSON(t *testing.T) {
	data, err := json.Marshal(PhaseSales)
	require.NoError(t, err)
	assert.Equal(t, `"SALES"`, string(data))

	var p Phase
	require.NoError(t, json.Unmarshal([]byte(`"cleanup"`), &p))
	assert.Equal(t, PhaseCleanup, p)
	assert.Error(t, json.Unmarshal([]byte(`"COMBAT"`), &p))
	assert.Equal(t, "PHASE_42", Phase(42).String())
}

func TestNextPlayer(t *testing.T) {
	order := []string{"alice", "bob", "carol"}
	assert.Equal(t, "bob", NextPlayer(order, "alice"))
	assert.Equal(t, "alice", NextPlayer(order, "carol"))
	assert.Equal(t, "alice", NextPlayer(order, "nobody"))
	assert.Equal(t, "", NextPlayer(nil, "alice"))
}
