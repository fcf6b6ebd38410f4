package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
	"github.com/fairwaylabs/teeline/internal/usecase"
)

type Handler struct {
	ingestService *usecase.IngestService
	tournaments   tournament.Repository
	matchups      matchup.Repository
	snapshots     matchup.SnapshotRepository
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	ingestService *usecase.IngestService,
	tournaments tournament.Repository,
	matchups matchup.Repository,
	snapshots matchup.SnapshotRepository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		ingestService: ingestService,
		tournaments:   tournaments,
		matchups:      matchups,
		snapshots:     snapshots,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
