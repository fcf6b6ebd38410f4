package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	qb "github.com/fairwaylabs/teeline/internal/platform/querybuilder"
)

type MatchupRepository struct {
	db *sqlx.DB
}

func NewMatchupRepository(db *sqlx.DB) *MatchupRepository {
	return &MatchupRepository{db: db}
}

func (r *MatchupRepository) ListByTournamentRounds(ctx context.Context, tournamentID int64, rounds []int) ([]matchup.Matchup, error) {
	if len(rounds) == 0 {
		return []matchup.Matchup{}, nil
	}

	query, args, err := qb.Select(matchupSelectColumns...).From("matchups").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.In("round", intSliceToAny(rounds)),
		).
		OrderBy("matchup_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matchups query: %w", err)
	}

	var rows []matchupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matchups by tournament rounds: %w", err)
	}

	out := make([]matchup.Matchup, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchupFromRow(row))
	}
	return out, nil
}

func (r *MatchupRepository) UpsertMany(ctx context.Context, matchups []matchup.Matchup) error {
	if len(matchups) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert matchups: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range matchups {
		model := matchupInsertFromDomain(item)
		query, args, err := qb.InsertModel("matchups", model, `ON CONFLICT (matchup_key)
DO UPDATE SET
    p1_name = EXCLUDED.p1_name,
    p1_primary_odds = EXCLUDED.p1_primary_odds,
    p1_model_odds = EXCLUDED.p1_model_odds,
    p2_name = EXCLUDED.p2_name,
    p2_primary_odds = EXCLUDED.p2_primary_odds,
    p2_model_odds = EXCLUDED.p2_model_odds,
    p3_name = EXCLUDED.p3_name,
    p3_primary_odds = EXCLUDED.p3_primary_odds,
    p3_model_odds = EXCLUDED.p3_model_odds,
    tee_time = EXCLUDED.tee_time,
    start_hole = EXCLUDED.start_hole,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert matchup query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert matchup key=%s: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert matchups tx: %w", err)
	}
	return nil
}

func (r *MatchupRepository) UpdateTeeTimes(ctx context.Context, updates []matchup.TeeTimeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update tee times: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, update := range updates {
		query, args, err := qb.Update("matchups").
			Set("tee_time", update.TeeTime).
			Set("start_hole", update.StartHole).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("matchup_key", update.Key)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update tee time query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update tee time key=%s: %w", update.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tee times tx: %w", err)
	}
	return nil
}
