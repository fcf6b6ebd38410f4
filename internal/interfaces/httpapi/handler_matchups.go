package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairwaylabs/teeline/internal/domain/matchup"
	"github.com/fairwaylabs/teeline/internal/usecase"
)

type matchupSlotDTO struct {
	DGID        int64    `json:"dgId"`
	Name        string   `json:"name"`
	PrimaryOdds *float64 `json:"primaryOdds,omitempty"`
	ModelOdds   *float64 `json:"modelOdds,omitempty"`
}

type matchupDTO struct {
	Key          string           `json:"key"`
	TournamentID int64            `json:"tournamentId"`
	Round        int              `json:"round"`
	Kind         string           `json:"kind"`
	Players      []matchupSlotDTO `json:"players"`
	TeeTime      *string          `json:"teeTime"`
	TeeStatus    string           `json:"teeStatus"`
	StartHole    int              `json:"startHole"`
	UpdatedAt    string           `json:"updatedAt"`
}

type snapshotDTO struct {
	MatchupKey   string           `json:"matchupKey"`
	TournamentID int64            `json:"tournamentId"`
	Round        int              `json:"round"`
	Kind         string           `json:"kind"`
	Players      []matchupSlotDTO `json:"players"`
	TeeTime      *string          `json:"teeTime"`
	StartHole    int              `json:"startHole"`
	CapturedAt   string           `json:"capturedAt"`
}

type listMatchupsQuery struct {
	Round int    `validate:"omitempty,min=1,max=4"`
	Kind  string `validate:"omitempty,oneof=2ball 3ball"`
}

// teeStatus renders the cut rule for consumers: a missing time on round
// three or later means the group missed the cut, earlier it is simply not
// published yet.
func teeStatus(teeTime *time.Time, round int) string {
	switch {
	case teeTime != nil:
		return "scheduled"
	case round >= 3:
		return "cut"
	default:
		return "unknown"
	}
}

func slotsToDTO(slots []matchup.Slot) []matchupSlotDTO {
	out := make([]matchupSlotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, matchupSlotDTO{
			DGID:        slot.DGID,
			Name:        slot.Name,
			PrimaryOdds: slot.PrimaryOdds,
			ModelOdds:   slot.ModelOdds,
		})
	}
	return out
}

func formatTeeTime(teeTime *time.Time) *string {
	if teeTime == nil {
		return nil
	}
	formatted := teeTime.Format(time.RFC3339)
	return &formatted
}

func matchupToDTO(m matchup.Matchup) matchupDTO {
	return matchupDTO{
		Key:          m.Key,
		TournamentID: m.TournamentID,
		Round:        m.Round,
		Kind:         string(m.Kind),
		Players:      slotsToDTO(m.Players),
		TeeTime:      formatTeeTime(m.TeeTime),
		TeeStatus:    teeStatus(m.TeeTime, m.Round),
		StartHole:    m.StartHole,
		UpdatedAt:    m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func snapshotToDTO(s matchup.Snapshot) snapshotDTO {
	return snapshotDTO{
		MatchupKey:   s.MatchupKey,
		TournamentID: s.TournamentID,
		Round:        s.Round,
		Kind:         string(s.Kind),
		Players:      slotsToDTO(s.Players),
		TeeTime:      formatTeeTime(s.TeeTime),
		StartHole:    s.StartHole,
		CapturedAt:   s.CapturedAt.UTC().Format(time.RFC3339),
	}
}

// ListTournamentMatchups returns the stored markets for one tournament,
// optionally filtered by round and market kind.
func (h *Handler) ListTournamentMatchups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentMatchups")
	defer span.End()

	tournamentID, err := strconv.ParseInt(r.PathValue("tournamentID"), 10, 64)
	if err != nil || tournamentID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: tournament id must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	query := listMatchupsQuery{Kind: strings.TrimSpace(r.URL.Query().Get("kind"))}
	if rawRound := strings.TrimSpace(r.URL.Query().Get("round")); rawRound != "" {
		round, err := strconv.Atoi(rawRound)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: round must be an integer", usecase.ErrInvalidInput))
			return
		}
		query.Round = round
	}
	if err := h.validator.Struct(query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	if _, found, err := h.tournaments.GetByID(ctx, tournamentID); err != nil {
		h.logger.ErrorContext(ctx, "lookup tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	} else if !found {
		writeError(ctx, w, fmt.Errorf("%w: tournament %d", usecase.ErrNotFound, tournamentID))
		return
	}

	rounds := []int{1, 2, 3, 4}
	if query.Round != 0 {
		rounds = []int{query.Round}
	}

	matchups, err := h.matchups.ListByTournamentRounds(ctx, tournamentID, rounds)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matchups failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchupDTO, 0, len(matchups))
	for _, m := range matchups {
		if query.Kind != "" && string(m.Kind) != query.Kind {
			continue
		}
		items = append(items, matchupToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// ListMatchupSnapshots returns the odds history captured for one market,
// oldest first.
func (h *Handler) ListMatchupSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchupSnapshots")
	defer span.End()

	key := strings.TrimSpace(r.PathValue("matchupKey"))
	if key == "" {
		writeError(ctx, w, fmt.Errorf("%w: matchup key is required", usecase.ErrInvalidInput))
		return
	}

	snapshots, err := h.snapshots.ListByMatchupKey(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "list snapshots failed", "matchup_key", key, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]snapshotDTO, 0, len(snapshots))
	for _, s := range snapshots {
		items = append(items, snapshotToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
