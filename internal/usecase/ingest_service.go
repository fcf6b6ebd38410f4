package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/fairwaylabs/teeline/external/datagolf"
	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/domain/player"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

const maxSampleKeys = 5

// FeedProvider is the slice of the feed client the engine consumes.
type FeedProvider interface {
	FetchThreeBallMatchups(ctx context.Context, tour tournament.Tour) (datagolf.MatchupsFeed, error)
	FetchTwoBallMatchups(ctx context.Context, tour tournament.Tour) (datagolf.MatchupsFeed, error)
	FetchAllPairings(ctx context.Context, tour tournament.Tour) (datagolf.PairingsFeed, error)
	FetchFieldUpdates(ctx context.Context, tour tournament.Tour) (datagolf.FieldFeed, error)
}

type CycleStatus string

const (
	StatusOK                 CycleStatus = "ok"
	StatusNoMatchups         CycleStatus = "no_matchups"
	StatusTournamentNotFound CycleStatus = "tournament_not_found"
	StatusUnsupportedEvent   CycleStatus = "unsupported_event"
)

// KindCounts splits write counts by market type.
type KindCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// CycleResult is the structured report for one ingestion cycle. Every
// cycle that does not hit a fatal error returns one, including the
// tournament-not-found and no-matchups paths, so callers can tell
// "nothing to do" apart from "something is broken".
type CycleResult struct {
	Tour              tournament.Tour `json:"tour"`
	Status            CycleStatus     `json:"status"`
	EventName         string          `json:"event_name,omitempty"`
	TournamentID      int64           `json:"tournament_id,omitempty"`
	Rounds            []int           `json:"rounds,omitempty"`
	TwoBall           KindCounts      `json:"two_ball"`
	ThreeBall         KindCounts      `json:"three_ball"`
	TeeTimesRefreshed int             `json:"tee_times_refreshed"`
	SnapshotsWritten  int             `json:"snapshots_written"`
	Suggestions       []string        `json:"suggestions,omitempty"`
	SampleKeys        []string        `json:"sample_keys,omitempty"`
}

// TourResult pairs a tour with its cycle outcome for batch runs.
type TourResult struct {
	Tour   tournament.Tour
	Result CycleResult
	Err    error
}

type IngestServiceConfig struct {
	Feeds     FeedProvider
	Resolver  TournamentResolver
	Players   player.Repository
	Matchups  matchup.Repository
	Snapshots matchup.SnapshotRepository
	Odds      OddsExtractor
	Tours     []tournament.Tour
	PoolSize  int
	Logger    *logging.Logger
	Now       func() time.Time
}

// IngestService runs ingestion cycles: fetch the provider's four feeds,
// reconcile them against the tournament store, and upsert markets keyed by
// the deterministic matchup key. Concurrent cycles for the same tour are
// not coordinated here; the trigger surface serializes them.
type IngestService struct {
	feeds     FeedProvider
	resolver  TournamentResolver
	players   player.Repository
	matchups  matchup.Repository
	snapshots matchup.SnapshotRepository
	odds      OddsExtractor
	tours     []tournament.Tour
	poolSize  int
	logger    *logging.Logger
	now       func() time.Time
}

func NewIngestService(cfg IngestServiceConfig) *IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 4
	}
	tours := cfg.Tours
	if len(tours) == 0 {
		tours = []tournament.Tour{tournament.TourPGA}
	}
	return &IngestService{
		feeds:     cfg.Feeds,
		resolver:  cfg.Resolver,
		players:   cfg.Players,
		matchups:  cfg.Matchups,
		snapshots: cfg.Snapshots,
		odds:      cfg.Odds,
		tours:     tours,
		poolSize:  poolSize,
		logger:    logger,
		now:       now,
	}
}

// Tours returns the configured ingestion tours.
func (s *IngestService) Tours() []tournament.Tour {
	out := make([]tournament.Tour, len(s.tours))
	copy(out, s.tours)
	return out
}

// RunAll runs one cycle per configured tour through a bounded worker pool
// and collects the per-tour outcomes. A failed tour does not stop the
// others.
func (s *IngestService) RunAll(ctx context.Context) ([]TourResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ingest.RunAll")
	defer span.End()

	workers := s.poolSize
	if workers > len(s.tours) {
		workers = len(s.tours)
	}
	workerPool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create ingest worker pool: %w", err)
	}
	defer workerPool.Release()

	results := make([]TourResult, len(s.tours))
	var wg sync.WaitGroup
	for i, tour := range s.tours {
		i, tour := i, tour
		wg.Add(1)
		submitErr := workerPool.Submit(func() {
			defer wg.Done()
			result, cycleErr := s.RunCycle(ctx, tour)
			results[i] = TourResult{Tour: tour, Result: result, Err: cycleErr}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = TourResult{Tour: tour, Err: fmt.Errorf("submit ingest cycle: %w", submitErr)}
		}
	}
	wg.Wait()
	return results, nil
}

// RunCycle executes one full ingestion cycle for a tour.
func (s *IngestService) RunCycle(ctx context.Context, tour tournament.Tour) (CycleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ingest.RunCycle")
	defer span.End()

	if _, ok := tournament.ParseTour(string(tour)); !ok {
		return CycleResult{Tour: tour}, fmt.Errorf("%w: unknown tour %q", ErrInvalidInput, tour)
	}
	result := CycleResult{Tour: tour}

	feeds, err := s.fetchFeeds(ctx, tour)
	if err != nil {
		return result, err
	}

	threeBallList := datagolf.NormalizeMatchList(feeds.threeBall.MatchList, "3ball", s.logger)
	twoBallList := datagolf.NormalizeMatchList(feeds.twoBall.MatchList, "2ball", s.logger)

	if len(threeBallList) == 0 && len(twoBallList) == 0 {
		return s.refreshTeeTimes(ctx, tour, feeds.field)
	}

	eventName := feeds.threeBall.EventName
	if eventName == "" {
		eventName = feeds.twoBall.EventName
	}
	resolved, err := s.resolveTournament(ctx, eventName, tour, &result)
	if err != nil || result.Status != "" {
		return result, err
	}
	result.EventName = eventName
	result.TournamentID = resolved.ID

	if err := s.upsertObservedPlayers(ctx, threeBallList, twoBallList); err != nil {
		return result, fmt.Errorf("upsert players: %w", err)
	}

	rounds := implicatedRounds(feeds.threeBall.Round, feeds.twoBall.Round)
	result.Rounds = rounds
	teeMaps := make(map[int]map[int64]TeeSlot, len(rounds))
	for _, round := range rounds {
		teeMaps[round] = BuildTeeTimeMap(feeds.field, round)
	}

	batch := make([]matchup.Matchup, 0, len(threeBallList)+len(twoBallList))
	seen := make(map[string]struct{}, cap(batch))
	batch = s.assembleRecords(ctx, batch, seen, threeBallList, matchup.Kind3Ball, feeds.threeBall.Round, resolved.ID, teeMaps, feeds.pairings.Pairings)
	batch = s.assembleRecords(ctx, batch, seen, twoBallList, matchup.Kind2Ball, feeds.twoBall.Round, resolved.ID, teeMaps, feeds.pairings.Pairings)

	existingKeys, snapshotCount, err := s.snapshotExisting(ctx, resolved.ID, rounds, seen)
	if err != nil {
		return result, err
	}
	result.SnapshotsWritten = snapshotCount

	if err := s.matchups.UpsertMany(ctx, batch); err != nil {
		return result, fmt.Errorf("upsert matchups: %w", err)
	}

	for _, record := range batch {
		_, exists := existingKeys[record.Key]
		switch record.Kind {
		case matchup.Kind2Ball:
			if exists {
				result.TwoBall.Updated++
			} else {
				result.TwoBall.Inserted++
			}
		case matchup.Kind3Ball:
			if exists {
				result.ThreeBall.Updated++
			} else {
				result.ThreeBall.Inserted++
			}
		}
		if len(result.SampleKeys) < maxSampleKeys {
			result.SampleKeys = append(result.SampleKeys, record.Key)
		}
	}
	result.Status = StatusOK

	s.logger.InfoContext(ctx, "ingestion cycle complete",
		"tour", tour,
		"tournament_id", resolved.ID,
		"two_ball_inserted", result.TwoBall.Inserted,
		"two_ball_updated", result.TwoBall.Updated,
		"three_ball_inserted", result.ThreeBall.Inserted,
		"three_ball_updated", result.ThreeBall.Updated,
		"snapshots", result.SnapshotsWritten)
	return result, nil
}

type fetchedFeeds struct {
	threeBall datagolf.MatchupsFeed
	twoBall   datagolf.MatchupsFeed
	pairings  datagolf.PairingsFeed
	field     datagolf.FieldFeed
}

// fetchFeeds fans the four feed requests out concurrently and fails the
// cycle on the first error; no partial cycle runs on a missing feed.
func (s *IngestService) fetchFeeds(ctx context.Context, tour tournament.Tour) (fetchedFeeds, error) {
	var feeds fetchedFeeds
	fanout := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	fanout.Go(func(ctx context.Context) error {
		feed, err := s.feeds.FetchThreeBallMatchups(ctx, tour)
		if err != nil {
			return fmt.Errorf("fetch 3-ball matchups: %w", err)
		}
		feeds.threeBall = feed
		return nil
	})
	fanout.Go(func(ctx context.Context) error {
		feed, err := s.feeds.FetchTwoBallMatchups(ctx, tour)
		if err != nil {
			return fmt.Errorf("fetch 2-ball matchups: %w", err)
		}
		feeds.twoBall = feed
		return nil
	})
	fanout.Go(func(ctx context.Context) error {
		feed, err := s.feeds.FetchAllPairings(ctx, tour)
		if err != nil {
			return fmt.Errorf("fetch pairings: %w", err)
		}
		feeds.pairings = feed
		return nil
	})
	fanout.Go(func(ctx context.Context) error {
		feed, err := s.feeds.FetchFieldUpdates(ctx, tour)
		if err != nil {
			return fmt.Errorf("fetch field updates: %w", err)
		}
		feeds.field = feed
		return nil
	})
	if err := fanout.Wait(); err != nil {
		return fetchedFeeds{}, err
	}
	return feeds, nil
}

// resolveTournament runs the resolver ladder and fills result's status for
// the non-fatal miss paths. A fuzzy hit records an alias so the next cycle
// matches exactly.
func (s *IngestService) resolveTournament(ctx context.Context, eventName string, tour tournament.Tour, result *CycleResult) (tournament.Tournament, error) {
	match, err := s.resolver.Resolve(ctx, eventName, tour)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("resolve tournament %q: %w", eventName, err)
	}
	if match.Kind == MatchNone {
		suggestions, suggestErr := s.resolver.Suggestions(ctx, tour)
		if suggestErr != nil {
			s.logger.WarnContext(ctx, "tournament suggestions unavailable", "error", suggestErr.Error())
		}
		result.Status = StatusTournamentNotFound
		result.EventName = eventName
		result.Suggestions = suggestions
		s.logger.WarnContext(ctx, "no tournament matched feed event", "event_name", eventName, "tour", tour)
		return tournament.Tournament{}, nil
	}
	if match.Tournament.EventType == tournament.EventTypeTeam {
		result.Status = StatusUnsupportedEvent
		result.EventName = eventName
		result.TournamentID = match.Tournament.ID
		s.logger.InfoContext(ctx, "skipping unsupported event type",
			"event_name", eventName, "tournament_id", match.Tournament.ID)
		return tournament.Tournament{}, nil
	}
	if match.Kind == MatchFuzzy {
		if aliasErr := s.resolver.RecordAlias(ctx, eventName, tour, match.Tournament.ID); aliasErr != nil {
			s.logger.WarnContext(ctx, "failed to record tournament alias",
				"event_name", eventName, "tournament_id", match.Tournament.ID, "error", aliasErr.Error())
		}
	}
	return match.Tournament, nil
}

// refreshTeeTimes is the degenerate cycle: no markets posted on either
// matchup feed, so only existing rows' tee times are refreshed for the
// field feed's current round. Nothing is created or deleted.
func (s *IngestService) refreshTeeTimes(ctx context.Context, tour tournament.Tour, field datagolf.FieldFeed) (CycleResult, error) {
	result := CycleResult{Tour: tour, Status: StatusNoMatchups, EventName: field.EventName}

	round := field.CurrentRound
	if round < 1 || round > 4 || field.EventName == "" {
		s.logger.InfoContext(ctx, "no matchups posted and no refreshable field data", "tour", tour)
		return result, nil
	}

	match, err := s.resolver.Resolve(ctx, field.EventName, tour)
	if err != nil {
		return result, fmt.Errorf("resolve tournament %q: %w", field.EventName, err)
	}
	if match.Kind == MatchNone {
		s.logger.InfoContext(ctx, "no matchups posted and event unresolved",
			"tour", tour, "event_name", field.EventName)
		return result, nil
	}
	result.TournamentID = match.Tournament.ID
	result.Rounds = []int{round}

	existing, err := s.matchups.ListByTournamentRounds(ctx, match.Tournament.ID, []int{round})
	if err != nil {
		return result, fmt.Errorf("list existing matchups: %w", err)
	}
	if len(existing) == 0 {
		return result, nil
	}

	teeMap := BuildTeeTimeMap(field, round)
	updates := make([]matchup.TeeTimeUpdate, 0, len(existing))
	for _, record := range existing {
		slot, ok := lookupTeeSlot(teeMap, record.PlayerIDs())
		if !ok {
			continue
		}
		if equalTimePtr(record.TeeTime, slot.TeeTime) && record.StartHole == slot.StartHole {
			continue
		}
		updates = append(updates, matchup.TeeTimeUpdate{Key: record.Key, TeeTime: slot.TeeTime, StartHole: slot.StartHole})
		switch record.Kind {
		case matchup.Kind2Ball:
			result.TwoBall.Updated++
		case matchup.Kind3Ball:
			result.ThreeBall.Updated++
		}
	}
	if len(updates) > 0 {
		if err := s.matchups.UpdateTeeTimes(ctx, updates); err != nil {
			return result, fmt.Errorf("refresh tee times: %w", err)
		}
	}
	result.TeeTimesRefreshed = len(updates)

	s.logger.InfoContext(ctx, "tee-time refresh complete",
		"tour", tour, "tournament_id", match.Tournament.ID, "round", round, "refreshed", len(updates))
	return result, nil
}

// upsertObservedPlayers collects every distinct (dg id, name) pair seen in
// either match list and upserts them so markets never reference a missing
// player. Failure here aborts the cycle before any market write.
func (s *IngestService) upsertObservedPlayers(ctx context.Context, lists ...[]datagolf.RawMatchup) error {
	byID := make(map[int64]string)
	for _, list := range lists {
		for _, raw := range list {
			for _, slot := range []struct {
				id   int64
				name string
			}{
				{raw.P1DGID, raw.P1Name},
				{raw.P2DGID, raw.P2Name},
				{raw.P3DGID, raw.P3Name},
			} {
				if slot.id <= 0 {
					continue
				}
				if existing, ok := byID[slot.id]; !ok || (existing == "" && slot.name != "") {
					byID[slot.id] = slot.name
				}
			}
		}
	}
	if len(byID) == 0 {
		return nil
	}

	players := make([]player.Player, 0, len(byID))
	for id, name := range byID {
		players = append(players, player.Player{DGID: id, Name: name})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].DGID < players[j].DGID })
	return s.players.UpsertMany(ctx, players)
}

// assembleRecords turns one feed's raw markets into persistable records,
// skipping malformed entries and in-batch duplicate keys.
func (s *IngestService) assembleRecords(ctx context.Context, batch []matchup.Matchup, seen map[string]struct{}, list []datagolf.RawMatchup, kind matchup.Kind, round int, tournamentID int64, teeMaps map[int]map[int64]TeeSlot, pairings []datagolf.Pairing) []matchup.Matchup {
	wantPlayers := 2
	if kind == matchup.Kind3Ball {
		wantPlayers = 3
	}
	now := s.now().UTC()

	for _, raw := range list {
		ids := raw.PlayerIDs()
		if len(ids) != wantPlayers {
			s.logger.WarnContext(ctx, "skipping market with wrong player count",
				"kind", kind, "want", wantPlayers, "got", len(ids))
			continue
		}
		key := matchup.BuildKey(tournamentID, round, kind, ids)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		slots := make([]matchup.Slot, 0, wantPlayers)
		names := []string{raw.P1Name, raw.P2Name, raw.P3Name}
		dgIDs := []int64{raw.P1DGID, raw.P2DGID, raw.P3DGID}
		for i := 0; i < wantPlayers; i++ {
			slots = append(slots, matchup.Slot{
				DGID:        dgIDs[i],
				Name:        names[i],
				PrimaryOdds: s.odds.PrimaryBookOdds(raw.Odds, i+1),
				ModelOdds:   s.odds.ModelOdds(raw.Odds, i+1),
			})
		}

		record := matchup.Matchup{
			Key:          key,
			TournamentID: tournamentID,
			Round:        round,
			Kind:         kind,
			Players:      slots,
			StartHole:    1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if slot, ok := lookupTeeSlot(teeMaps[round], ids); ok {
			record.TeeTime = slot.TeeTime
			record.StartHole = slot.StartHole
		} else if fallback := MatchPairing(pairings, ids); fallback != nil {
			record.TeeTime = fallback.TeeTime
			record.StartHole = fallback.StartHole
		}

		if err := record.Validate(); err != nil {
			s.logger.WarnContext(ctx, "skipping invalid market", "key", key, "error", err.Error())
			delete(seen, key)
			continue
		}
		batch = append(batch, record)
	}
	return batch
}

// snapshotExisting loads the rows the batch may overwrite and writes one
// immutable snapshot per row before the upsert. Snapshot failure is logged
// and the cycle continues; current-state correctness outranks audit
// completeness.
func (s *IngestService) snapshotExisting(ctx context.Context, tournamentID int64, rounds []int, batchKeys map[string]struct{}) (map[string]struct{}, int, error) {
	existing, err := s.matchups.ListByTournamentRounds(ctx, tournamentID, rounds)
	if err != nil {
		return nil, 0, fmt.Errorf("list existing matchups: %w", err)
	}

	existingKeys := make(map[string]struct{}, len(existing))
	capturedAt := s.now().UTC()
	snapshots := make([]matchup.Snapshot, 0, len(existing))
	for _, record := range existing {
		existingKeys[record.Key] = struct{}{}
		if _, overwritten := batchKeys[record.Key]; overwritten {
			snapshots = append(snapshots, matchup.SnapshotOf(record, capturedAt))
		}
	}
	if len(snapshots) == 0 {
		return existingKeys, 0, nil
	}
	if err := s.snapshots.InsertMany(ctx, snapshots); err != nil {
		s.logger.WarnContext(ctx, "snapshot write failed, continuing with upsert",
			"tournament_id", tournamentID, "count", len(snapshots), "error", err.Error())
		return existingKeys, 0, nil
	}
	return existingKeys, len(snapshots), nil
}

// lookupTeeSlot returns the field-feed tee slot for a market by its first
// player present in the map. Presence with a nil tee time still counts as
// found: a cut player's market keeps the nil instead of falling back to a
// stale pairing time.
func lookupTeeSlot(teeMap map[int64]TeeSlot, playerIDs []int64) (TeeSlot, bool) {
	for _, id := range playerIDs {
		if slot, ok := teeMap[id]; ok {
			return slot, true
		}
	}
	return TeeSlot{}, false
}

func implicatedRounds(rounds ...int) []int {
	seen := make(map[int]struct{}, len(rounds))
	out := make([]int, 0, len(rounds))
	for _, round := range rounds {
		if round < 1 || round > 4 {
			continue
		}
		if _, dup := seen[round]; dup {
			continue
		}
		seen[round] = struct{}{}
		out = append(out, round)
	}
	sort.Ints(out)
	if len(out) == 0 {
		out = append(out, 1)
	}
	return out
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
