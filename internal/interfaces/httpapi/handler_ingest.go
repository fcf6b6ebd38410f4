package httpapi

import (
	"fmt"
	"net/http"

	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/usecase"
)

type cycleResultDTO struct {
	Tour              string             `json:"tour"`
	Status            string             `json:"status"`
	EventName         string             `json:"eventName,omitempty"`
	TournamentID      int64              `json:"tournamentId,omitempty"`
	Rounds            []int              `json:"rounds,omitempty"`
	TwoBall           usecase.KindCounts `json:"twoBall"`
	ThreeBall         usecase.KindCounts `json:"threeBall"`
	TeeTimesRefreshed int                `json:"teeTimesRefreshed"`
	SnapshotsWritten  int                `json:"snapshotsWritten"`
	Suggestions       []string           `json:"suggestions,omitempty"`
	SampleKeys        []string           `json:"sampleKeys,omitempty"`
}

type tourResultDTO struct {
	Tour   string          `json:"tour"`
	Result *cycleResultDTO `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func cycleResultToDTO(tour tournament.Tour, result usecase.CycleResult) cycleResultDTO {
	return cycleResultDTO{
		Tour:              string(tour),
		Status:            string(result.Status),
		EventName:         result.EventName,
		TournamentID:      result.TournamentID,
		Rounds:            result.Rounds,
		TwoBall:           result.TwoBall,
		ThreeBall:         result.ThreeBall,
		TeeTimesRefreshed: result.TeeTimesRefreshed,
		SnapshotsWritten:  result.SnapshotsWritten,
		Suggestions:       result.Suggestions,
		SampleKeys:        result.SampleKeys,
	}
}

// RunIngestTour triggers one ingestion cycle for the tour in the path.
func (h *Handler) RunIngestTour(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunIngestTour")
	defer span.End()

	rawTour := r.PathValue("tour")
	tour, ok := tournament.ParseTour(rawTour)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown tour %q", usecase.ErrInvalidInput, rawTour))
		return
	}

	result, err := h.ingestService.RunCycle(ctx, tour)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest cycle failed", "tour", tour, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cycleResultToDTO(tour, result))
}

// RunIngestAll triggers one ingestion cycle per configured tour.
func (h *Handler) RunIngestAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunIngestAll")
	defer span.End()

	results, err := h.ingestService.RunAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest run-all failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]tourResultDTO, 0, len(results))
	for _, tr := range results {
		item := tourResultDTO{Tour: string(tr.Tour)}
		if tr.Err != nil {
			item.Error = tr.Err.Error()
		} else {
			dto := cycleResultToDTO(tr.Tour, tr.Result)
			item.Result = &dto
		}
		items = append(items, item)
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
