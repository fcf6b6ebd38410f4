package memory

import (
	"context"
	"sync"

	"github.com/fairwaylabs/teeline/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[int64]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	index := make(map[int64]player.Player, len(players))
	for _, p := range players {
		index[p.DGID] = p
	}
	return &PlayerRepository{players: index}
}

func (r *PlayerRepository) UpsertMany(_ context.Context, players []player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range players {
		if p.DGID <= 0 {
			continue
		}
		if existing, ok := r.players[p.DGID]; ok && p.Name == "" {
			p.Name = existing.Name
		}
		r.players[p.DGID] = p
	}
	return nil
}

func (r *PlayerRepository) GetByDGIDs(_ context.Context, dgIDs []int64) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(dgIDs))
	for _, id := range dgIDs {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
