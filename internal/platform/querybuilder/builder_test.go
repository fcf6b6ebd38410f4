package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("matchup_key", "round").From("matchups").
		Where(
			Eq("tournament_id", int64(100)),
			In("round", []any{2, 3}),
			IsNull("deleted_at"),
		).
		OrderBy("matchup_key").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT matchup_key, round FROM matchups WHERE tournament_id = $1 AND round IN ($2, $3) AND deleted_at IS NULL ORDER BY matchup_key"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{int64(100), 2, 3}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectBuilder_EmptyIn(t *testing.T) {
	t.Parallel()

	query, args, err := Select("*").From("players").
		Where(In("dg_id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if query != "SELECT * FROM players WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestInsertBuilder_MultiRowWithSuffix(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("players").
		Columns("dg_id", "name").
		Values(int64(12), "Scottie Scheffler").
		Values(int64(55), "Rory McIlroy").
		Suffix("ON CONFLICT (dg_id) DO UPDATE SET name = EXCLUDED.name").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "INSERT INTO players (dg_id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (dg_id) DO UPDATE SET name = EXCLUDED.name"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("players").
		Columns("dg_id", "name").
		Values(int64(12)).
		ToSQL()
	if err == nil {
		t.Fatal("expected row width error")
	}
}

func TestUpdateBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Update("matchups").
		Set("tee_time", nil).
		Set("start_hole", 1).
		Where(Eq("matchup_key", "100_R3_2ball_12_55")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE matchups SET tee_time = $1, start_hole = $2 WHERE matchup_key = $3"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
}

func TestUpdateBuilder_SetExpr(t *testing.T) {
	t.Parallel()

	query, args, err := Update("matchups").
		Set("start_hole", 10).
		SetExpr("updated_at", "NOW()").
		Where(Eq("matchup_key", "100_R1_3ball_5_6_7")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE matchups SET start_hole = $1, updated_at = NOW() WHERE matchup_key = $2"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestInsertModel(t *testing.T) {
	t.Parallel()

	model := struct {
		DGID   int64  `db:"dg_id"`
		Name   string `db:"name"`
		Ignore string `db:"-"`
		hidden string
	}{DGID: 18417, Name: "Ludvig Aberg", Ignore: "x", hidden: "y"}

	query, args, err := InsertModel("players", model, "")
	if err != nil {
		t.Fatalf("InsertModel error: %v", err)
	}
	if query != "INSERT INTO players (dg_id, name) VALUES ($1, $2)" {
		t.Fatalf("unexpected query: %s", query)
	}
	if !reflect.DeepEqual(args, []any{int64(18417), "Ludvig Aberg"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModels(t *testing.T) {
	t.Parallel()

	type row struct {
		DGID int64  `db:"dg_id"`
		Name string `db:"name"`
	}

	query, args, err := InsertModels("players", []row{
		{DGID: 12, Name: "A"},
		{DGID: 55, Name: "B"},
	}, "ON CONFLICT (dg_id) DO NOTHING")
	if err != nil {
		t.Fatalf("InsertModels error: %v", err)
	}
	want := "INSERT INTO players (dg_id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (dg_id) DO NOTHING"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}
