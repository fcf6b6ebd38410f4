package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fairwaylabs/teeline/internal/domain/tournament"
)

type TournamentRepository struct {
	mu          sync.RWMutex
	tournaments []tournament.Tournament
}

func NewTournamentRepository(tournaments []tournament.Tournament) *TournamentRepository {
	out := make([]tournament.Tournament, len(tournaments))
	copy(out, tournaments)
	return &TournamentRepository{tournaments: out}
}

func (r *TournamentRepository) GetByID(_ context.Context, id int64) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.tournaments {
		if item.ID == id {
			return item, true, nil
		}
	}
	return tournament.Tournament{}, false, nil
}

func (r *TournamentRepository) FindByNormalizedName(_ context.Context, normalizedName string, tour tournament.Tour) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.tournaments {
		if item.Tour != tour {
			continue
		}
		if tournament.NormalizeName(item.Name) == normalizedName {
			return item, true, nil
		}
	}
	return tournament.Tournament{}, false, nil
}

func (r *TournamentRepository) ListCurrentByTour(_ context.Context, tour tournament.Tour) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.tournaments))
	for _, item := range r.tournaments {
		if item.Tour == tour {
			out = append(out, item)
		}
	}
	return out, nil
}

type AliasRepository struct {
	mu      sync.RWMutex
	aliases map[string]tournament.Alias
}

func NewAliasRepository() *AliasRepository {
	return &AliasRepository{aliases: make(map[string]tournament.Alias)}
}

func (r *AliasRepository) FindByNormalizedName(_ context.Context, normalizedName string, _ tournament.Tour) (int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alias, ok := r.aliases[normalizedName]
	if !ok {
		return 0, false, nil
	}
	return alias.TournamentID, true, nil
}

func (r *AliasRepository) Record(_ context.Context, alias tournament.Alias) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = time.Now().UTC()
	}
	r.aliases[alias.NormalizedName] = alias
	return nil
}
