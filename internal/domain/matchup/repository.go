package matchup

import (
	"context"
	"time"
)

// TeeTimeUpdate carries a tee-time refresh for one existing market.
// A nil TeeTime clears the stored time (missed cut on round >= 3).
type TeeTimeUpdate struct {
	Key       string
	TeeTime   *time.Time
	StartHole int
}

// Repository describes market persistence. UpsertMany must be keyed on the
// matchup key: an existing key updates odds, names and tee time in place,
// a new key inserts.
type Repository interface {
	ListByTournamentRounds(ctx context.Context, tournamentID int64, rounds []int) ([]Matchup, error)
	UpsertMany(ctx context.Context, matchups []Matchup) error
	UpdateTeeTimes(ctx context.Context, updates []TeeTimeUpdate) error
}

// SnapshotRepository is the append-only history store.
type SnapshotRepository interface {
	InsertMany(ctx context.Context, snapshots []Snapshot) error
	ListByMatchupKey(ctx context.Context, key string) ([]Snapshot, error)
}
