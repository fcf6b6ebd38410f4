package matchup

import (
	"fmt"
	"time"
)

// Kind is the market type: head-to-head for two players or a 3-ball group.
type Kind string

const (
	Kind2Ball Kind = "2ball"
	Kind3Ball Kind = "3ball"
)

// Slot holds one player's identity and prices inside a market.
// PrimaryOdds is the designated primary book's price and is nil when that
// book does not quote the player; ModelOdds is the provider's model-derived
// price and is extracted independently of any book.
type Slot struct {
	DGID        int64
	Name        string
	PrimaryOdds *float64
	ModelOdds   *float64
}

// Matchup is the persisted betting market. Key uniquely identifies the
// logical market; re-observations update the same row in place.
// A nil TeeTime on round three or later means the player group missed the
// cut, not that the time is unknown.
type Matchup struct {
	Key          string
	TournamentID int64
	Round        int
	Kind         Kind
	Players      []Slot
	TeeTime      *time.Time
	StartHole    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m Matchup) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("matchup key is required")
	}
	if m.TournamentID <= 0 {
		return fmt.Errorf("matchup tournament id is required")
	}
	if m.Round < 1 || m.Round > 4 {
		return fmt.Errorf("matchup round must be between 1 and 4")
	}
	switch m.Kind {
	case Kind2Ball:
		if len(m.Players) != 2 {
			return fmt.Errorf("2ball matchup requires exactly 2 players, got %d", len(m.Players))
		}
	case Kind3Ball:
		if len(m.Players) != 3 {
			return fmt.Errorf("3ball matchup requires exactly 3 players, got %d", len(m.Players))
		}
	default:
		return fmt.Errorf("invalid matchup kind: %s", m.Kind)
	}
	for _, slot := range m.Players {
		if slot.DGID <= 0 {
			return fmt.Errorf("matchup player dg_id is required")
		}
	}
	return nil
}

// PlayerIDs returns the dg ids in slot order.
func (m Matchup) PlayerIDs() []int64 {
	out := make([]int64, 0, len(m.Players))
	for _, slot := range m.Players {
		out = append(out, slot.DGID)
	}
	return out
}

// Snapshot is an immutable copy of a market's state captured right before
// an upsert overwrites it. Append-only; never mutated or deleted.
type Snapshot struct {
	MatchupKey   string
	TournamentID int64
	Round        int
	Kind         Kind
	Players      []Slot
	TeeTime      *time.Time
	StartHole    int
	CapturedAt   time.Time
}

// SnapshotOf copies the mutable fields of a market into a snapshot row.
func SnapshotOf(m Matchup, capturedAt time.Time) Snapshot {
	players := make([]Slot, len(m.Players))
	copy(players, m.Players)
	return Snapshot{
		MatchupKey:   m.Key,
		TournamentID: m.TournamentID,
		Round:        m.Round,
		Kind:         m.Kind,
		Players:      players,
		TeeTime:      m.TeeTime,
		StartHole:    m.StartHole,
		CapturedAt:   capturedAt,
	}
}
