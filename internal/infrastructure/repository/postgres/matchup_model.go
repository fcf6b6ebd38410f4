package postgres

import (
	"database/sql"
	"time"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
)

type matchupTableModel struct {
	ID           int64          `db:"id"`
	MatchupKey   string         `db:"matchup_key"`
	TournamentID int64          `db:"tournament_id"`
	Round        int            `db:"round"`
	Kind         string         `db:"kind"`
	P1DGID       int64          `db:"p1_dg_id"`
	P1Name       string         `db:"p1_name"`
	P1Primary    *float64       `db:"p1_primary_odds"`
	P1Model      *float64       `db:"p1_model_odds"`
	P2DGID       int64          `db:"p2_dg_id"`
	P2Name       string         `db:"p2_name"`
	P2Primary    *float64       `db:"p2_primary_odds"`
	P2Model      *float64       `db:"p2_model_odds"`
	P3DGID       sql.NullInt64  `db:"p3_dg_id"`
	P3Name       sql.NullString `db:"p3_name"`
	P3Primary    *float64       `db:"p3_primary_odds"`
	P3Model      *float64       `db:"p3_model_odds"`
	TeeTime      *time.Time     `db:"tee_time"`
	StartHole    int            `db:"start_hole"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var matchupSelectColumns = []string{
	"id",
	"matchup_key",
	"tournament_id",
	"round",
	"kind",
	"p1_dg_id", "p1_name", "p1_primary_odds", "p1_model_odds",
	"p2_dg_id", "p2_name", "p2_primary_odds", "p2_model_odds",
	"p3_dg_id", "p3_name", "p3_primary_odds", "p3_model_odds",
	"tee_time",
	"start_hole",
	"created_at",
	"updated_at",
}

type matchupInsertModel struct {
	MatchupKey   string     `db:"matchup_key"`
	TournamentID int64      `db:"tournament_id"`
	Round        int        `db:"round"`
	Kind         string     `db:"kind"`
	P1DGID       int64      `db:"p1_dg_id"`
	P1Name       string     `db:"p1_name"`
	P1Primary    *float64   `db:"p1_primary_odds"`
	P1Model      *float64   `db:"p1_model_odds"`
	P2DGID       int64      `db:"p2_dg_id"`
	P2Name       string     `db:"p2_name"`
	P2Primary    *float64   `db:"p2_primary_odds"`
	P2Model      *float64   `db:"p2_model_odds"`
	P3DGID       *int64     `db:"p3_dg_id"`
	P3Name       *string    `db:"p3_name"`
	P3Primary    *float64   `db:"p3_primary_odds"`
	P3Model      *float64   `db:"p3_model_odds"`
	TeeTime      *time.Time `db:"tee_time"`
	StartHole    int        `db:"start_hole"`
}

func matchupInsertFromDomain(item matchup.Matchup) matchupInsertModel {
	model := matchupInsertModel{
		MatchupKey:   item.Key,
		TournamentID: item.TournamentID,
		Round:        item.Round,
		Kind:         string(item.Kind),
		TeeTime:      item.TeeTime,
		StartHole:    item.StartHole,
	}
	if len(item.Players) > 0 {
		model.P1DGID = item.Players[0].DGID
		model.P1Name = item.Players[0].Name
		model.P1Primary = item.Players[0].PrimaryOdds
		model.P1Model = item.Players[0].ModelOdds
	}
	if len(item.Players) > 1 {
		model.P2DGID = item.Players[1].DGID
		model.P2Name = item.Players[1].Name
		model.P2Primary = item.Players[1].PrimaryOdds
		model.P2Model = item.Players[1].ModelOdds
	}
	if len(item.Players) > 2 {
		dgID := item.Players[2].DGID
		name := item.Players[2].Name
		model.P3DGID = &dgID
		model.P3Name = &name
		model.P3Primary = item.Players[2].PrimaryOdds
		model.P3Model = item.Players[2].ModelOdds
	}
	return model
}

func matchupFromRow(row matchupTableModel) matchup.Matchup {
	players := []matchup.Slot{
		{DGID: row.P1DGID, Name: row.P1Name, PrimaryOdds: row.P1Primary, ModelOdds: row.P1Model},
		{DGID: row.P2DGID, Name: row.P2Name, PrimaryOdds: row.P2Primary, ModelOdds: row.P2Model},
	}
	if row.P3DGID.Valid {
		players = append(players, matchup.Slot{
			DGID:        row.P3DGID.Int64,
			Name:        row.P3Name.String,
			PrimaryOdds: row.P3Primary,
			ModelOdds:   row.P3Model,
		})
	}
	return matchup.Matchup{
		Key:          row.MatchupKey,
		TournamentID: row.TournamentID,
		Round:        row.Round,
		Kind:         matchup.Kind(row.Kind),
		Players:      players,
		TeeTime:      row.TeeTime,
		StartHole:    row.StartHole,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
