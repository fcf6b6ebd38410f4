package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	qb "github.com/fairwaylabs/teeline/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

type tournamentTableModel struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	Tour           string    `db:"tour"`
	EventType      string    `db:"event_type"`
	StartDate      time.Time `db:"start_date"`
	EndDate        time.Time `db:"end_date"`
}

var tournamentSelectColumns = []string{
	"id",
	"name",
	"normalized_name",
	"tour",
	"event_type",
	"start_date",
	"end_date",
}

func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build select tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("select tournament by id: %w", err)
	}
	return tournamentFromRow(row), true, nil
}

func (r *TournamentRepository) FindByNormalizedName(ctx context.Context, normalizedName string, tour tournament.Tour) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(
			qb.Eq("normalized_name", normalizedName),
			qb.Eq("tour", string(tour)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build select tournament by name query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("select tournament by name: %w", err)
	}
	return tournamentFromRow(row), true, nil
}

// ListCurrentByTour returns the tour's tournaments in the live window:
// anything that ended within the last day or starts within the next week.
func (r *TournamentRepository) ListCurrentByTour(ctx context.Context, tour tournament.Tour) ([]tournament.Tournament, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(
			qb.Eq("tour", string(tour)),
			qb.Expr("end_date >= NOW() - INTERVAL '1 day'"),
			qb.Expr("start_date <= NOW() + INTERVAL '7 days'"),
		).
		OrderBy("start_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select current tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select current tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournamentFromRow(row))
	}
	return out, nil
}

func tournamentFromRow(row tournamentTableModel) tournament.Tournament {
	return tournament.Tournament{
		ID:        row.ID,
		Name:      row.Name,
		Tour:      tournament.Tour(row.Tour),
		EventType: tournament.EventType(row.EventType),
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
	}
}

type AliasRepository struct {
	db *sqlx.DB
}

func NewAliasRepository(db *sqlx.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

type aliasInsertModel struct {
	TournamentID   int64  `db:"tournament_id"`
	NormalizedName string `db:"normalized_name"`
	Source         string `db:"source"`
}

func (r *AliasRepository) FindByNormalizedName(ctx context.Context, normalizedName string, _ tournament.Tour) (int64, bool, error) {
	query, args, err := qb.Select("tournament_id").From("tournament_aliases").
		Where(qb.Eq("normalized_name", normalizedName)).
		Limit(1).
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build select alias query: %w", err)
	}

	var tournamentID int64
	if err := r.db.GetContext(ctx, &tournamentID, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select alias by name: %w", err)
	}
	return tournamentID, true, nil
}

func (r *AliasRepository) Record(ctx context.Context, alias tournament.Alias) error {
	model := aliasInsertModel{
		TournamentID:   alias.TournamentID,
		NormalizedName: alias.NormalizedName,
		Source:         alias.Source,
	}
	query, args, err := qb.InsertModel("tournament_aliases", model, `ON CONFLICT (normalized_name)
DO UPDATE SET
    tournament_id = EXCLUDED.tournament_id,
    source = EXCLUDED.source`)
	if err != nil {
		return fmt.Errorf("build upsert alias query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert tournament alias: %w", err)
	}
	return nil
}
