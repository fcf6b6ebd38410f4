package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairwaylabs/teeline/internal/domain/player"
	qb "github.com/fairwaylabs/teeline/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

type playerInsertModel struct {
	DGID int64  `db:"dg_id"`
	Name string `db:"name"`
}

func (r *PlayerRepository) UpsertMany(ctx context.Context, players []player.Player) error {
	if len(players) == 0 {
		return nil
	}

	models := make([]playerInsertModel, 0, len(players))
	for _, item := range players {
		if item.DGID <= 0 {
			continue
		}
		models = append(models, playerInsertModel{DGID: item.DGID, Name: item.Name})
	}
	if len(models) == 0 {
		return nil
	}

	// An empty feed name must not clobber a previously learned one.
	query, args, err := qb.InsertModels("players", models, `ON CONFLICT (dg_id)
DO UPDATE SET
    name = COALESCE(NULLIF(EXCLUDED.name, ''), players.name),
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert players query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}
	return nil
}

func (r *PlayerRepository) GetByDGIDs(ctx context.Context, dgIDs []int64) ([]player.Player, error) {
	if len(dgIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select("dg_id", "name").From("players").
		Where(qb.In("dg_id", int64SliceToAny(dgIDs))).
		OrderBy("dg_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerInsertModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by dg ids: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{DGID: row.DGID, Name: row.Name})
	}
	return out, nil
}
