package game

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"golang.org/x/crypto/blake2b"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a serialized GameState with an integrity checksum.
type Snapshot struct {
	GameID    string          `json:"game_id"`
	Version   int             `json:"version"`
	Turn      int             `json:"turn"`
	GameOver  bool            `json:"game_over"`
	Checksum  string          `json:"checksum"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// Checksum computes a deterministic blake2b-256 digest of the game state.
// Wall-clock fields are excluded so equal games hash equally.
func Checksum(gs *GameState) string {
	sum := blake2b.Sum256([]byte(canonical(gs)))
	return hex.EncodeToString(sum[:])
}

// canonical builds a representation independent of map iteration order.
func canonical(gs *GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%s|%t|%t|%s\n",
		gs.ID, gs.Turn, gs.CurrentPlayer, gs.Phase, gs.GameOver, gs.Winner, gs.WinnerID)
	fmt.Fprintf(&buf, "RULES:%d|%d|%d|%d|%d|%d\n",
		gs.Rules.CapMax, gs.Rules.RevenueGoal, gs.Rules.BaseCapital,
		gs.Rules.CapitalGrowth, gs.Rules.OpeningHand, gs.Rules.DrawPerTurn)

	// Seat order matters
	buf.WriteString("ORDER:")
	buf.WriteString(strings.Join(gs.Order, ","))
	buf.WriteString("\n")

	playerIDs := make([]string, 0, len(gs.Players))
	for id := range gs.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	for _, id := range playerIDs {
		p := gs.Players[id]
		fmt.Fprintf(&buf, "PLAYER:%s|%d|%d|%s|%s|%t\n",
			id, p.Capital, p.Revenue, p.Hero, p.HeroAbility, p.HeroAbilityUsed)
		writeCards(&buf, "HAND", p.Hand)
		writeCards(&buf, "DECK", p.Deck)
		writeCards(&buf, "DISCARD", p.Discard)
		writeCards(&buf, "TOOLS", p.Board.Tools)
		writeCards(&buf, "PRODUCTS", p.Board.Products)
		writeCards(&buf, "EMPLOYEES", p.Board.Employees)
		for i, pc := range p.PendingChoices.Items() {
			fmt.Fprintf(&buf, "  CHOICE:%d|%s|%s|%s|%d|%s|%s|%s\n",
				i, pc.ID, pc.Kind, pc.Effect, pc.Count,
				strings.Join(card.IDs(pc.Cards), ","),
				strings.Join(pc.Options, ","),
				strings.Join(pc.Picked, ","))
		}

		if ctx, ok := gs.EffectContext[id]; ok {
			data, err := json.Marshal(ctx)
			if err == nil {
				// RecentlySold is wall-clock driven and stays out of the digest.
				var fields map[string]json.RawMessage
				if json.Unmarshal(data, &fields) == nil {
					delete(fields, "recently_sold")
					data, _ = json.Marshal(fields)
				}
			}
			fmt.Fprintf(&buf, "  CONTEXT:%s\n", data)
		}
	}
	return buf.String()
}

func writeCards(buf *bytes.Buffer, zone string, cards []*card.Card) {
	fmt.Fprintf(buf, "  %s:", zone)
	for i, c := range cards {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(buf, "%s/%s/%d/%d/%d/%t/%d", c.ID, c.Key, c.Cost, c.Inventory, c.RevenuePerSale, c.IsActive, c.Appeal)
	}
	buf.WriteString("\n")
}

// NewSnapshot serializes gs.
func NewSnapshot(gs *GameState) (*Snapshot, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode game state: %w", err)
	}
	return &Snapshot{
		GameID:    gs.ID,
		Version:   SnapshotVersion,
		Turn:      gs.Turn,
		GameOver:  gs.GameOver,
		Checksum:  Checksum(gs),
		State:     data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Restore decodes the snapshot and verifies its checksum.
func (s *Snapshot) Restore() (*GameState, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", s.Version)
	}
	var gs GameState
	if err := json.Unmarshal(s.State, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode game state: %w", err)
	}
	for _, p := range gs.Players {
		if p.PendingChoices == nil {
			p.PendingChoices = choice.NewQueue()
		}
	}
	if s.Checksum != "" {
		if got := Checksum(&gs); got != s.Checksum {
			return nil, fmt.Errorf("checksum mismatch: stored=%s computed=%s", s.Checksum, got)
		}
	}
	return &gs, nil
}

// ValidateSerializationRoundtrip checks that gs survives a snapshot round
// trip without changing its checksum.
func ValidateSerializationRoundtrip(gs *GameState) error {
	snap, err := NewSnapshot(gs)
	if err != nil {
		return err
	}
	restored, err := snap.Restore()
	if err != nil {
		return err
	}
	if Checksum(restored) != snap.Checksum {
		return fmt.Errorf("checksum mismatch after roundtrip")
	}
	return nil
}
