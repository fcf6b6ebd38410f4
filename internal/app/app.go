package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	_ "github.com/lib/pq"

	"github.com/fairwaylabs/teeline/external/datagolf"
	"github.com/fairwaylabs/teeline/internal/config"
	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/domain/player"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/infrastructure/repository/memory"
	"github.com/fairwaylabs/teeline/internal/infrastructure/repository/postgres"
	"github.com/fairwaylabs/teeline/internal/interfaces/httpapi"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
	"github.com/fairwaylabs/teeline/internal/platform/resilience"
	"github.com/fairwaylabs/teeline/internal/usecase"
)

type repositories struct {
	players     player.Repository
	tournaments tournament.Repository
	aliases     tournament.AliasRepository
	matchups    matchup.Repository
	snapshots   matchup.SnapshotRepository
	close       func() error
}

// NewHTTPServer wires the full ingestion stack. An empty DB_URL selects
// seeded in-memory repositories so the service runs without infrastructure
// in local development.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build repositories: %w", err)
	}

	feedClient := datagolf.NewClient(datagolf.ClientConfig{
		BaseURL: cfg.DataGolfBaseURL,
		Key:     cfg.DataGolfKey,
		Timeout: cfg.DataGolfTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.DataGolfCircuitEnabled,
			FailureThreshold: cfg.DataGolfCircuitFailureCount,
			OpenTimeout:      cfg.DataGolfCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.DataGolfCircuitHalfOpenMaxReq,
		},
	})

	resolver := usecase.NewNameResolver(repos.tournaments, repos.aliases, logger)

	ingestService := usecase.NewIngestService(usecase.IngestServiceConfig{
		Feeds:     feedClient,
		Resolver:  resolver,
		Players:   repos.players,
		Matchups:  repos.matchups,
		Snapshots: repos.snapshots,
		Odds:      usecase.NewOddsExtractor(cfg.OddsPrimaryBook, cfg.OddsBookPriority),
		Tours:     cfg.IngestTours,
		PoolSize:  cfg.IngestPoolSize,
		Logger:    logger,
	})

	handler := httpapi.NewHandler(ingestService, repos.tournaments, repos.matchups, repos.snapshots, logger)
	router := httpapi.NewRouter(handler, logger, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, repos.close, nil
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		logger.Info("using in-memory repositories", "reason", "DB_URL empty")
		return repositories{
			players:     memory.NewPlayerRepository(memory.SeedPlayers()),
			tournaments: memory.NewTournamentRepository(memory.SeedTournaments()),
			aliases:     memory.NewAliasRepository(),
			matchups:    memory.NewMatchupRepository(),
			snapshots:   memory.NewSnapshotRepository(),
			close:       func() error { return nil },
		}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return repositories{}, fmt.Errorf("connect postgres: %w", err)
	}

	logger.Info("connected to postgres", "db_name", dbNameFromURL(cfg.DBURL))
	return repositories{
		players:     postgres.NewPlayerRepository(db),
		tournaments: postgres.NewTournamentRepository(db),
		aliases:     postgres.NewAliasRepository(db),
		matchups:    postgres.NewMatchupRepository(db),
		snapshots:   postgres.NewSnapshotRepository(db),
		close:       db.Close,
	}, nil
}
