package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fairwaylabs/teeline/external/datagolf"
	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/infrastructure/repository/memory"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

type stubFeedProvider struct {
	threeBall datagolf.MatchupsFeed
	twoBall   datagolf.MatchupsFeed
	pairings  datagolf.PairingsFeed
	field     datagolf.FieldFeed

	threeBallErr error
	twoBallErr   error
	pairingsErr  error
	fieldErr     error
}

func (s *stubFeedProvider) FetchThreeBallMatchups(_ context.Context, _ tournament.Tour) (datagolf.MatchupsFeed, error) {
	return s.threeBall, s.threeBallErr
}

func (s *stubFeedProvider) FetchTwoBallMatchups(_ context.Context, _ tournament.Tour) (datagolf.MatchupsFeed, error) {
	return s.twoBall, s.twoBallErr
}

func (s *stubFeedProvider) FetchAllPairings(_ context.Context, _ tournament.Tour) (datagolf.PairingsFeed, error) {
	return s.pairings, s.pairingsErr
}

func (s *stubFeedProvider) FetchFieldUpdates(_ context.Context, _ tournament.Tour) (datagolf.FieldFeed, error) {
	return s.field, s.fieldErr
}

type ingestFixture struct {
	service   *IngestService
	feeds     *stubFeedProvider
	resolver  *NameResolver
	players   *memory.PlayerRepository
	matchups  *memory.MatchupRepository
	snapshots *memory.SnapshotRepository
}

func newIngestFixture(t *testing.T, feeds *stubFeedProvider) *ingestFixture {
	t.Helper()

	players := memory.NewPlayerRepository(nil)
	matchups := memory.NewMatchupRepository()
	snapshots := memory.NewSnapshotRepository()
	resolver := NewNameResolver(memory.NewTournamentRepository(testTournaments()), memory.NewAliasRepository(), logging.NewNop())

	service := NewIngestService(IngestServiceConfig{
		Feeds:     feeds,
		Resolver:  resolver,
		Players:   players,
		Matchups:  matchups,
		Snapshots: snapshots,
		Odds:      NewOddsExtractor("fanduel", nil),
		Tours:     []tournament.Tour{tournament.TourPGA},
		Logger:    logging.NewNop(),
	})
	return &ingestFixture{
		service:   service,
		feeds:     feeds,
		resolver:  resolver,
		players:   players,
		matchups:  matchups,
		snapshots: snapshots,
	}
}

func matchListOf(t *testing.T, raws []datagolf.RawMatchup) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(raws)
	if err != nil {
		t.Fatalf("marshal match list: %v", err)
	}
	return payload
}

func liveFeeds(t *testing.T) *stubFeedProvider {
	t.Helper()
	return &stubFeedProvider{
		threeBall: datagolf.MatchupsFeed{
			EventName: "Travelers Championship",
			Round:     2,
			MatchList: matchListOf(t, []datagolf.RawMatchup{
				{
					P1DGID: 10, P1Name: "Scheffler, Scottie",
					P2DGID: 20, P2Name: "Rahm, Jon",
					P3DGID: 30, P3Name: "McIlroy, Rory",
					Odds: map[string]datagolf.BookOdds{
						"fanduel":  {P1: floatPtr(2.1), P2: floatPtr(2.9), P3: floatPtr(3.2)},
						"datagolf": {P1: floatPtr(2.0), P2: floatPtr(3.0), P3: floatPtr(3.1)},
					},
				},
			}),
		},
		twoBall: datagolf.MatchupsFeed{
			EventName: "Travelers Championship",
			Round:     2,
			MatchList: matchListOf(t, []datagolf.RawMatchup{
				{
					P1DGID: 10, P1Name: "Scheffler, Scottie",
					P2DGID: 20, P2Name: "Rahm, Jon",
					Odds: map[string]datagolf.BookOdds{
						"fanduel": {P1: floatPtr(1.87), P2: floatPtr(1.95)},
					},
				},
			}),
		},
		pairings: datagolf.PairingsFeed{
			EventName: "Travelers Championship",
			Round:     2,
			Pairings: []datagolf.Pairing{
				{P1DGID: 10, P2DGID: 20, P3DGID: 30, TeeTime: "2026-06-26 13:45", StartHole: 1},
			},
		},
		field: datagolf.FieldFeed{
			EventName:    "Travelers Championship",
			CurrentRound: 2,
			Field: []datagolf.FieldEntry{
				{DGID: 10, PlayerName: "Scheffler, Scottie", R2TeeTime: strPtr("2026-06-26 13:45")},
				{DGID: 20, PlayerName: "Rahm, Jon", R2TeeTime: strPtr("2026-06-26 13:45")},
				{DGID: 30, PlayerName: "McIlroy, Rory", R2TeeTime: strPtr("2026-06-26 13:45")},
			},
		},
	}
}

func TestIngestService_RunCycle_InsertsThenUpdatesIdempotently(t *testing.T) {
	t.Parallel()

	fix := newIngestFixture(t, liveFeeds(t))
	ctx := context.Background()

	first, err := fix.service.RunCycle(ctx, tournament.TourPGA)
	if err != nil {
		t.Fatalf("first RunCycle: %v", err)
	}
	if first.Status != StatusOK {
		t.Fatalf("first run status = %s", first.Status)
	}
	if first.ThreeBall.Inserted != 1 || first.TwoBall.Inserted != 1 {
		t.Fatalf("first run inserts = %+v / %+v", first.ThreeBall, first.TwoBall)
	}
	if first.ThreeBall.Updated != 0 || first.TwoBall.Updated != 0 {
		t.Fatalf("first run should not update, got %+v / %+v", first.ThreeBall, first.TwoBall)
	}
	if first.SnapshotsWritten != 0 {
		t.Fatalf("nothing to snapshot on first run, got %d", first.SnapshotsWritten)
	}

	second, err := fix.service.RunCycle(ctx, tournament.TourPGA)
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if second.ThreeBall.Inserted != 0 || second.TwoBall.Inserted != 0 {
		t.Fatalf("second run must insert nothing, got %+v / %+v", second.ThreeBall, second.TwoBall)
	}
	if second.ThreeBall.Updated != 1 || second.TwoBall.Updated != 1 {
		t.Fatalf("second run updates = %+v / %+v", second.ThreeBall, second.TwoBall)
	}

	stored, err := fix.matchups.ListByTournamentRounds(ctx, 1, []int{2})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted markets after two runs, got %d", len(stored))
	}

	got, err := fix.players.GetByDGIDs(ctx, []int64{10, 20, 30})
	if err != nil {
		t.Fatalf("get players: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 upserted players, got %d", len(got))
	}
}

func TestIngestService_RunCycle_KeyAndTeeTimeAssembly(t *testing.T) {
	t.Parallel()

	fix := newIngestFixture(t, liveFeeds(t))

	result, err := fix.service.RunCycle(context.Background(), tournament.TourPGA)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.TournamentID != 1 {
		t.Fatalf("tournament id = %d", result.TournamentID)
	}

	stored, err := fix.matchups.ListByTournamentRounds(context.Background(), 1, []int{2})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	byKey := make(map[string]matchup.Matchup, len(stored))
	for _, item := range stored {
		byKey[item.Key] = item
	}

	twoBall, ok := byKey["1_R2_2ball_10_20"]
	if !ok {
		t.Fatalf("expected key 1_R2_2ball_10_20, have %v", result.SampleKeys)
	}
	if twoBall.TeeTime == nil {
		t.Fatal("expected tee time resolved from field feed")
	}
	want := time.Date(2026, 6, 26, 13, 45, 0, 0, time.UTC)
	if !twoBall.TeeTime.Equal(want) {
		t.Fatalf("tee time = %v, want %v", twoBall.TeeTime, want)
	}
	if twoBall.Players[0].PrimaryOdds == nil || *twoBall.Players[0].PrimaryOdds != 1.87 {
		t.Fatalf("primary odds = %v", twoBall.Players[0].PrimaryOdds)
	}

	threeBall, ok := byKey["1_R2_3ball_10_20_30"]
	if !ok {
		t.Fatalf("expected key 1_R2_3ball_10_20_30, have %v", result.SampleKeys)
	}
	if threeBall.Players[2].ModelOdds == nil || *threeBall.Players[2].ModelOdds != 3.1 {
		t.Fatalf("model odds = %v", threeBall.Players[2].ModelOdds)
	}
}

func TestIngestService_RunCycle_SnapshotBeforeOverwrite(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	fix := newIngestFixture(t, feeds)
	ctx := context.Background()

	if _, err := fix.service.RunCycle(ctx, tournament.TourPGA); err != nil {
		t.Fatalf("first RunCycle: %v", err)
	}

	// Prices move between cycles.
	feeds.twoBall.MatchList = matchListOf(t, []datagolf.RawMatchup{
		{
			P1DGID: 10, P1Name: "Scheffler, Scottie",
			P2DGID: 20, P2Name: "Rahm, Jon",
			Odds: map[string]datagolf.BookOdds{
				"fanduel": {P1: floatPtr(1.72), P2: floatPtr(2.10)},
			},
		},
	})

	second, err := fix.service.RunCycle(ctx, tournament.TourPGA)
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if second.SnapshotsWritten != 2 {
		t.Fatalf("expected snapshots for both overwritten markets, got %d", second.SnapshotsWritten)
	}

	history, err := fix.snapshots.ListByMatchupKey(ctx, "1_R2_2ball_10_20")
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(history))
	}
	if history[0].Players[0].PrimaryOdds == nil || *history[0].Players[0].PrimaryOdds != 1.87 {
		t.Fatalf("snapshot must hold pre-change odds, got %v", history[0].Players[0].PrimaryOdds)
	}

	stored, err := fix.matchups.ListByTournamentRounds(ctx, 1, []int{2})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	for _, item := range stored {
		if item.Key != "1_R2_2ball_10_20" {
			continue
		}
		if item.Players[0].PrimaryOdds == nil || *item.Players[0].PrimaryOdds != 1.72 {
			t.Fatalf("current row must hold post-change odds, got %v", item.Players[0].PrimaryOdds)
		}
	}
}

func TestIngestService_RunCycle_DegenerateTeeTimeRefresh(t *testing.T) {
	t.Parallel()

	noMarkets := json.RawMessage(`"matchup odds unavailable at this time"`)
	feeds := &stubFeedProvider{
		threeBall: datagolf.MatchupsFeed{EventName: "Travelers Championship", MatchList: noMarkets},
		twoBall:   datagolf.MatchupsFeed{EventName: "Travelers Championship", MatchList: noMarkets},
		field: datagolf.FieldFeed{
			EventName:    "Travelers Championship",
			CurrentRound: 3,
			Field: []datagolf.FieldEntry{
				{DGID: 10, R3TeeTime: nil},
				{DGID: 20, R3TeeTime: nil},
				{DGID: 30, R3TeeTime: nil},
				{DGID: 40, R3TeeTime: nil},
				{DGID: 50, R3TeeTime: nil},
				{DGID: 60, R3TeeTime: nil},
			},
		},
	}
	fix := newIngestFixture(t, feeds)
	ctx := context.Background()

	teeTime := time.Date(2026, 6, 27, 9, 0, 0, 0, time.UTC)
	existing := make([]matchup.Matchup, 0, 5)
	pairs := [][2]int64{{10, 20}, {30, 40}, {10, 30}, {20, 40}, {40, 50}}
	for _, pair := range pairs {
		tee := teeTime
		existing = append(existing, matchup.Matchup{
			Key:          matchup.BuildKey(1, 3, matchup.Kind2Ball, pair[:]),
			TournamentID: 1,
			Round:        3,
			Kind:         matchup.Kind2Ball,
			Players:      []matchup.Slot{{DGID: pair[0]}, {DGID: pair[1]}},
			TeeTime:      &tee,
			StartHole:    1,
		})
	}
	if err := fix.matchups.UpsertMany(ctx, existing); err != nil {
		t.Fatalf("seed matchups: %v", err)
	}

	result, err := fix.service.RunCycle(ctx, tournament.TourPGA)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Status != StatusNoMatchups {
		t.Fatalf("status = %s, want %s", result.Status, StatusNoMatchups)
	}
	if result.TwoBall.Inserted != 0 || result.ThreeBall.Inserted != 0 {
		t.Fatalf("degenerate path must not insert, got %+v / %+v", result.TwoBall, result.ThreeBall)
	}
	if result.TwoBall.Updated != 5 {
		t.Fatalf("expected 5 refreshed markets, got %d", result.TwoBall.Updated)
	}
	if result.TeeTimesRefreshed != 5 {
		t.Fatalf("tee times refreshed = %d, want 5", result.TeeTimesRefreshed)
	}

	stored, err := fix.matchups.ListByTournamentRounds(ctx, 1, []int{3})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	if len(stored) != 5 {
		t.Fatalf("degenerate path must not change row count, got %d", len(stored))
	}
	for _, item := range stored {
		if item.TeeTime != nil {
			t.Fatalf("market %s should have null tee time after cut, got %v", item.Key, item.TeeTime)
		}
	}
}

func TestIngestService_RunCycle_CutBlocksPairingFallback(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	feeds.threeBall.MatchList = json.RawMessage(`[]`)
	feeds.twoBall.Round = 3
	feeds.twoBall.MatchList = matchListOf(t, []datagolf.RawMatchup{
		{
			P1DGID: 10, P1Name: "Scheffler, Scottie",
			P2DGID: 20, P2Name: "Rahm, Jon",
			Odds: map[string]datagolf.BookOdds{
				"fanduel": {P1: floatPtr(1.87), P2: floatPtr(1.95)},
			},
		},
	})
	// Both players missed the cut; the pairings feed still carries a stale
	// round-2 group for them.
	feeds.field = datagolf.FieldFeed{
		EventName:    "Travelers Championship",
		CurrentRound: 3,
		Field: []datagolf.FieldEntry{
			{DGID: 10, R3TeeTime: nil},
			{DGID: 20, R3TeeTime: nil},
		},
	}

	fix := newIngestFixture(t, feeds)
	if _, err := fix.service.RunCycle(context.Background(), tournament.TourPGA); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	stored, err := fix.matchups.ListByTournamentRounds(context.Background(), 1, []int{3})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 market, got %d", len(stored))
	}
	if stored[0].TeeTime != nil {
		t.Fatalf("cut players must keep null tee time, got %v", stored[0].TeeTime)
	}
}

func TestIngestService_RunCycle_PairingFallbackWhenFieldLacksPlayers(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	// Field feed does not cover the market's players at all.
	feeds.field = datagolf.FieldFeed{EventName: "Travelers Championship", CurrentRound: 2}

	fix := newIngestFixture(t, feeds)
	if _, err := fix.service.RunCycle(context.Background(), tournament.TourPGA); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	stored, err := fix.matchups.ListByTournamentRounds(context.Background(), 1, []int{2})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	for _, item := range stored {
		if item.TeeTime == nil {
			t.Fatalf("market %s should have pairing-derived tee time", item.Key)
		}
	}
}

func TestIngestService_RunCycle_TournamentNotFound(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	feeds.threeBall.EventName = "Mystery Invitational"
	feeds.twoBall.EventName = "Mystery Invitational"

	fix := newIngestFixture(t, feeds)
	result, err := fix.service.RunCycle(context.Background(), tournament.TourPGA)
	if err != nil {
		t.Fatalf("RunCycle should report the miss, not fail: %v", err)
	}
	if result.Status != StatusTournamentNotFound {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.Suggestions) == 0 {
		t.Fatal("expected diagnostic suggestions")
	}

	stored, err := fix.matchups.ListByTournamentRounds(context.Background(), 1, []int{2})
	if err != nil {
		t.Fatalf("list matchups: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("no markets may be written on a resolution miss, got %d", len(stored))
	}
}

func TestIngestService_RunCycle_UnsupportedEventType(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	feeds.threeBall.EventName = "Zurich Classic of New Orleans"
	feeds.twoBall.EventName = "Zurich Classic of New Orleans"

	players := memory.NewPlayerRepository(nil)
	matchups := memory.NewMatchupRepository()
	tournaments := append(testTournaments(), tournament.Tournament{
		ID: 3, Name: "Zurich Classic of New Orleans", Tour: tournament.TourPGA, EventType: tournament.EventTypeTeam,
	})
	service := NewIngestService(IngestServiceConfig{
		Feeds:     feeds,
		Resolver:  NewNameResolver(memory.NewTournamentRepository(tournaments), memory.NewAliasRepository(), logging.NewNop()),
		Players:   players,
		Matchups:  matchups,
		Snapshots: memory.NewSnapshotRepository(),
		Odds:      NewOddsExtractor("fanduel", nil),
		Logger:    logging.NewNop(),
	})

	result, err := service.RunCycle(context.Background(), tournament.TourPGA)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Status != StatusUnsupportedEvent {
		t.Fatalf("status = %s, want %s", result.Status, StatusUnsupportedEvent)
	}
	if result.TournamentID != 3 {
		t.Fatalf("unsupported result should still name the tournament, got %d", result.TournamentID)
	}
}

func TestIngestService_RunCycle_FuzzyMatchLearnsAlias(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	feeds.threeBall.EventName = "The Travelers Championship"
	feeds.twoBall.EventName = "The Travelers Championship"

	fix := newIngestFixture(t, feeds)
	ctx := context.Background()

	result, err := fix.service.RunCycle(ctx, tournament.TourPGA)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %s", result.Status)
	}

	match, err := fix.resolver.Resolve(ctx, "The Travelers Championship", tournament.TourPGA)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if match.Kind != MatchAlias {
		t.Fatalf("next cycle should resolve via learned alias, got %s", match.Kind)
	}
}

func TestIngestService_RunCycle_FeedFailureAbortsWithoutWrites(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	feeds.fieldErr = errors.New("upstream 500")

	fix := newIngestFixture(t, feeds)
	if _, err := fix.service.RunCycle(context.Background(), tournament.TourPGA); err == nil {
		t.Fatal("expected cycle to abort on feed failure")
	}

	got, err := fix.players.GetByDGIDs(context.Background(), []int64{10, 20, 30})
	if err != nil {
		t.Fatalf("get players: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("no players may be written when a fetch fails, got %d", len(got))
	}
}

func TestIngestService_RunCycle_RejectsUnknownTour(t *testing.T) {
	t.Parallel()

	fix := newIngestFixture(t, liveFeeds(t))
	_, err := fix.service.RunCycle(context.Background(), tournament.Tour("lpga"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestService_RunAll_CollectsPerTourResults(t *testing.T) {
	t.Parallel()

	feeds := liveFeeds(t)
	players := memory.NewPlayerRepository(nil)
	service := NewIngestService(IngestServiceConfig{
		Feeds:     feeds,
		Resolver:  NewNameResolver(memory.NewTournamentRepository(testTournaments()), memory.NewAliasRepository(), logging.NewNop()),
		Players:   players,
		Matchups:  memory.NewMatchupRepository(),
		Snapshots: memory.NewSnapshotRepository(),
		Odds:      NewOddsExtractor("fanduel", nil),
		Tours:     []tournament.Tour{tournament.TourPGA, tournament.Tour("bad")},
		PoolSize:  2,
		Logger:    logging.NewNop(),
	})

	results, err := service.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 tour results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("pga cycle failed: %v", results[0].Err)
	}
	if results[0].Result.Status != StatusOK {
		t.Fatalf("pga status = %s", results[0].Result.Status)
	}
	if !errors.Is(results[1].Err, ErrInvalidInput) {
		t.Fatalf("bad tour should fail with ErrInvalidInput, got %v", results[1].Err)
	}
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, eventName string, tour tournament.Tour) (ResolverMatch, error) {
	args := m.Called(ctx, eventName, tour)
	return args.Get(0).(ResolverMatch), args.Error(1)
}

func (m *mockResolver) RecordAlias(ctx context.Context, eventName string, tour tournament.Tour, tournamentID int64) error {
	args := m.Called(ctx, eventName, tour, tournamentID)
	return args.Error(0)
}

func (m *mockResolver) Suggestions(ctx context.Context, tour tournament.Tour) ([]string, error) {
	args := m.Called(ctx, tour)
	if names := args.Get(0); names != nil {
		return names.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestIngestService_RunCycle_ResolverErrorIsFatal(t *testing.T) {
	t.Parallel()

	resolver := &mockResolver{}
	resolver.
		On("Resolve", mock.Anything, "Travelers Championship", tournament.TourPGA).
		Return(ResolverMatch{}, errors.New("store offline")).
		Once()

	service := NewIngestService(IngestServiceConfig{
		Feeds:     liveFeeds(t),
		Resolver:  resolver,
		Players:   memory.NewPlayerRepository(nil),
		Matchups:  memory.NewMatchupRepository(),
		Snapshots: memory.NewSnapshotRepository(),
		Odds:      NewOddsExtractor("fanduel", nil),
		Logger:    logging.NewNop(),
	})

	if _, err := service.RunCycle(context.Background(), tournament.TourPGA); err == nil {
		t.Fatal("expected resolver failure to abort the cycle")
	}
	resolver.AssertExpectations(t)
}
