package memory

import (
	"context"
	"sync"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
)

// SnapshotRepository is append-only: rows are stored in insertion order and
// never mutated.
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []matchup.Snapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

func (r *SnapshotRepository) InsertMany(_ context.Context, snapshots []matchup.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range snapshots {
		players := make([]matchup.Slot, len(item.Players))
		copy(players, item.Players)
		item.Players = players
		r.snapshots = append(r.snapshots, item)
	}
	return nil
}

func (r *SnapshotRepository) ListByMatchupKey(_ context.Context, key string) ([]matchup.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchup.Snapshot, 0, 4)
	for _, item := range r.snapshots {
		if item.MatchupKey == key {
			out = append(out, item)
		}
	}
	return out, nil
}

// Len reports the total snapshot count across all keys.
func (r *SnapshotRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}
