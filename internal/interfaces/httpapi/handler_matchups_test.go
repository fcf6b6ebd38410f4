package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/infrastructure/repository/memory"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

func newReadFixture(t *testing.T) (*Handler, *memory.MatchupRepository, *memory.SnapshotRepository) {
	t.Helper()

	matchups := memory.NewMatchupRepository()
	snapshots := memory.NewSnapshotRepository()
	tournaments := memory.NewTournamentRepository(memory.SeedTournaments())

	handler := NewHandler(nil, tournaments, matchups, snapshots, logging.NewNop())
	return handler, matchups, snapshots
}

func seedMarkets(t *testing.T, repo *memory.MatchupRepository) {
	t.Helper()

	teeTime := time.Date(2026, 6, 26, 13, 40, 0, 0, time.UTC)
	odds := 1.87
	err := repo.UpsertMany(context.Background(), []matchup.Matchup{
		{
			Key:          "1_R2_2ball_10_20",
			TournamentID: 1,
			Round:        2,
			Kind:         matchup.Kind2Ball,
			Players: []matchup.Slot{
				{DGID: 10, Name: "Scottie Scheffler", PrimaryOdds: &odds},
				{DGID: 20, Name: "Collin Morikawa"},
			},
			TeeTime:   &teeTime,
			StartHole: 1,
		},
		{
			Key:          "1_R3_3ball_10_20_30",
			TournamentID: 1,
			Round:        3,
			Kind:         matchup.Kind3Ball,
			Players: []matchup.Slot{
				{DGID: 10, Name: "Scottie Scheffler"},
				{DGID: 20, Name: "Collin Morikawa"},
				{DGID: 30, Name: "Ludvig Aberg"},
			},
			StartHole: 1,
		},
	})
	if err != nil {
		t.Fatalf("seed markets: %v", err)
	}
}

func decodeDataArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body.Data
}

func TestListTournamentMatchups_FiltersByRoundAndKind(t *testing.T) {
	handler, matchups, _ := newReadFixture(t)
	seedMarkets(t, matchups)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/1/matchups?round=2&kind=2ball", nil)
	req.SetPathValue("tournamentID", "1")

	handler.ListTournamentMatchups(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	items := decodeDataArray(t, rec)
	if len(items) != 1 {
		t.Fatalf("expected 1 matchup, got %d", len(items))
	}
	if got, _ := items[0]["key"].(string); got != "1_R2_2ball_10_20" {
		t.Fatalf("key = %v", items[0]["key"])
	}
	if got, _ := items[0]["teeStatus"].(string); got != "scheduled" {
		t.Fatalf("teeStatus = %v", items[0]["teeStatus"])
	}
}

func TestListTournamentMatchups_RendersCutStatus(t *testing.T) {
	handler, matchups, _ := newReadFixture(t)
	seedMarkets(t, matchups)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/1/matchups?round=3", nil)
	req.SetPathValue("tournamentID", "1")

	handler.ListTournamentMatchups(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeDataArray(t, rec)
	if len(items) != 1 {
		t.Fatalf("expected 1 matchup, got %d", len(items))
	}
	if got, _ := items[0]["teeStatus"].(string); got != "cut" {
		t.Fatalf("teeStatus = %v, want cut", items[0]["teeStatus"])
	}
	if items[0]["teeTime"] != nil {
		t.Fatalf("teeTime = %v, want null", items[0]["teeTime"])
	}
}

func TestListTournamentMatchups_UnknownTournament(t *testing.T) {
	handler, _, _ := newReadFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/999/matchups", nil)
	req.SetPathValue("tournamentID", "999")

	handler.ListTournamentMatchups(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListTournamentMatchups_RejectsBadRound(t *testing.T) {
	handler, _, _ := newReadFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/1/matchups?round=9", nil)
	req.SetPathValue("tournamentID", "1")

	handler.ListTournamentMatchups(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListMatchupSnapshots_ReturnsHistory(t *testing.T) {
	handler, _, snapshots := newReadFixture(t)

	captured := time.Date(2026, 6, 26, 12, 0, 0, 0, time.UTC)
	err := snapshots.InsertMany(context.Background(), []matchup.Snapshot{
		{
			MatchupKey:   "1_R2_2ball_10_20",
			TournamentID: 1,
			Round:        2,
			Kind:         matchup.Kind2Ball,
			Players: []matchup.Slot{
				{DGID: 10, Name: "Scottie Scheffler"},
				{DGID: 20, Name: "Collin Morikawa"},
			},
			StartHole:  1,
			CapturedAt: captured,
		},
	})
	if err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/matchups/1_R2_2ball_10_20/snapshots", nil)
	req.SetPathValue("matchupKey", "1_R2_2ball_10_20")

	handler.ListMatchupSnapshots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeDataArray(t, rec)
	if len(items) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(items))
	}
	if got, _ := items[0]["capturedAt"].(string); got != "2026-06-26T12:00:00Z" {
		t.Fatalf("capturedAt = %v", items[0]["capturedAt"])
	}
}
