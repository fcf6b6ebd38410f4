package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

// fuzzyMatchThreshold is the minimum token-overlap score for a fuzzy hit.
// Feed event names drift by sponsor prefixes and punctuation, not by
// substance, so a high bar keeps false positives out of the market store.
const fuzzyMatchThreshold = 0.72

type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchAlias MatchKind = "alias"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// ResolverMatch is the resolver's decision for one feed event name.
// Resolution is a pure lookup; recording a learned alias is a separate,
// explicit side effect so callers control when learning happens.
type ResolverMatch struct {
	Tournament tournament.Tournament
	Kind       MatchKind
	Confidence float64
}

// TournamentResolver maps a feed event name to a stored tournament.
type TournamentResolver interface {
	Resolve(ctx context.Context, eventName string, tour tournament.Tour) (ResolverMatch, error)
	RecordAlias(ctx context.Context, eventName string, tour tournament.Tour, tournamentID int64) error
	Suggestions(ctx context.Context, tour tournament.Tour) ([]string, error)
}

// NameResolver resolves event names against the tournament and alias
// stores: exact normalized match first, then learned aliases, then a fuzzy
// token-overlap scan over the tour's current tournaments.
type NameResolver struct {
	tournaments tournament.Repository
	aliases     tournament.AliasRepository
	logger      *logging.Logger
}

func NewNameResolver(tournaments tournament.Repository, aliases tournament.AliasRepository, logger *logging.Logger) *NameResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &NameResolver{tournaments: tournaments, aliases: aliases, logger: logger}
}

func (r *NameResolver) Resolve(ctx context.Context, eventName string, tour tournament.Tour) (ResolverMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "resolver.Resolve")
	defer span.End()

	normalized := tournament.NormalizeName(eventName)
	if normalized == "" {
		return ResolverMatch{Kind: MatchNone}, fmt.Errorf("%w: empty event name", ErrInvalidInput)
	}

	found, ok, err := r.tournaments.FindByNormalizedName(ctx, normalized, tour)
	if err != nil {
		return ResolverMatch{Kind: MatchNone}, fmt.Errorf("resolve tournament by name: %w", err)
	}
	if ok {
		return ResolverMatch{Tournament: found, Kind: MatchExact, Confidence: 1}, nil
	}

	aliasID, ok, err := r.aliases.FindByNormalizedName(ctx, normalized, tour)
	if err != nil {
		return ResolverMatch{Kind: MatchNone}, fmt.Errorf("resolve tournament alias: %w", err)
	}
	if ok {
		aliased, exists, err := r.tournaments.GetByID(ctx, aliasID)
		if err != nil {
			return ResolverMatch{Kind: MatchNone}, fmt.Errorf("load aliased tournament: %w", err)
		}
		if exists {
			return ResolverMatch{Tournament: aliased, Kind: MatchAlias, Confidence: 1}, nil
		}
		r.logger.WarnContext(ctx, "alias points at missing tournament", "tournament_id", aliasID, "event_name", eventName)
	}

	candidates, err := r.tournaments.ListCurrentByTour(ctx, tour)
	if err != nil {
		return ResolverMatch{Kind: MatchNone}, fmt.Errorf("list current tournaments: %w", err)
	}

	var best tournament.Tournament
	bestScore := 0.0
	for _, candidate := range candidates {
		score := tokenOverlapScore(normalized, tournament.NormalizeName(candidate.Name))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore >= fuzzyMatchThreshold {
		r.logger.InfoContext(ctx, "fuzzy tournament match",
			"event_name", eventName, "matched", best.Name, "score", bestScore)
		return ResolverMatch{Tournament: best, Kind: MatchFuzzy, Confidence: bestScore}, nil
	}
	return ResolverMatch{Kind: MatchNone}, nil
}

// RecordAlias stores a learned event-name mapping so the next cycle
// resolves it without the fuzzy scan.
func (r *NameResolver) RecordAlias(ctx context.Context, eventName string, tour tournament.Tour, tournamentID int64) error {
	normalized := tournament.NormalizeName(eventName)
	if normalized == "" || tournamentID <= 0 {
		return fmt.Errorf("%w: alias requires event name and tournament id", ErrInvalidInput)
	}
	return r.aliases.Record(ctx, tournament.Alias{
		TournamentID:   tournamentID,
		NormalizedName: normalized,
		Source:         string(tour),
	})
}

// Suggestions lists the tour's current tournament names for unresolved-event
// diagnostics.
func (r *NameResolver) Suggestions(ctx context.Context, tour tournament.Tour) ([]string, error) {
	candidates, err := r.tournaments.ListCurrentByTour(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("list current tournaments: %w", err)
	}
	names := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		names = append(names, candidate.Name)
	}
	return names, nil
}

// tokenOverlapScore is the Dice coefficient over whitespace tokens of two
// normalized names.
func tokenOverlapScore(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(tokensA))
	for _, token := range tokensA {
		setA[token] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(tokensB))
	for _, token := range tokensB {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := setA[token]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(setA)+len(seen))
}
