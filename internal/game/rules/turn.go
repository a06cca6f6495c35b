package rules

import (
	"fmt"
	"strings"
)

// Phase is one stage of a player's turn.
type Phase int

const (
	PhaseTurnStart Phase = iota
	PhasePassive
	PhaseOverhead
	PhaseSales
	PhaseActions
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseTurnStart: "TURN_START",
	PhasePassive:   "PASSIVE",
	PhaseOverhead:  "OVERHEAD",
	PhaseSales:     "SALES",
	PhaseActions:   "ACTIONS",
	PhaseCleanup:   "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase converts a phase name back into a Phase.
func ParsePhase(name string) (Phase, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// turnSequence is the fixed order of phases within one turn.
var turnSequence = []Phase{
	PhaseTurnStart,
	PhasePassive,
	PhaseOverhead,
	PhaseSales,
	PhaseActions,
	PhaseCleanup,
}

// Sequence returns the phases of a turn in order.
func Sequence() []Phase {
	cpy := make([]Phase, len(turnSequence))
	copy(cpy, turnSequence)
	return cpy
}

// IsAutomatic reports whether the phase runs without player input.
func (p Phase) IsAutomatic() bool {
	return p != PhaseActions
}

// NextPlayer returns the seat after current in order, wrapping around.
// An unknown current player yields the first seat.
func NextPlayer(order []string, current string) string {
	if len(order) == 0 {
		return ""
	}
	current = strings.TrimSpace(current)
	for i, id := range order {
		if id == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
