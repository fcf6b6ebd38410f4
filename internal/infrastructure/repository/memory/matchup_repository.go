package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
)

type MatchupRepository struct {
	mu       sync.RWMutex
	matchups map[string]matchup.Matchup
}

func NewMatchupRepository() *MatchupRepository {
	return &MatchupRepository{matchups: make(map[string]matchup.Matchup)}
}

func (r *MatchupRepository) ListByTournamentRounds(_ context.Context, tournamentID int64, rounds []int) ([]matchup.Matchup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roundSet := make(map[int]struct{}, len(rounds))
	for _, round := range rounds {
		roundSet[round] = struct{}{}
	}

	out := make([]matchup.Matchup, 0, len(r.matchups))
	for _, item := range r.matchups {
		if item.TournamentID != tournamentID {
			continue
		}
		if _, ok := roundSet[item.Round]; !ok {
			continue
		}
		out = append(out, cloneMatchup(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MatchupRepository) UpsertMany(_ context.Context, matchups []matchup.Matchup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range matchups {
		if existing, ok := r.matchups[item.Key]; ok {
			item.CreatedAt = existing.CreatedAt
		}
		r.matchups[item.Key] = cloneMatchup(item)
	}
	return nil
}

func (r *MatchupRepository) UpdateTeeTimes(_ context.Context, updates []matchup.TeeTimeUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		existing, ok := r.matchups[update.Key]
		if !ok {
			continue
		}
		existing.TeeTime = update.TeeTime
		existing.StartHole = update.StartHole
		r.matchups[update.Key] = existing
	}
	return nil
}

func cloneMatchup(item matchup.Matchup) matchup.Matchup {
	players := make([]matchup.Slot, len(item.Players))
	copy(players, item.Players)
	item.Players = players
	return item
}
