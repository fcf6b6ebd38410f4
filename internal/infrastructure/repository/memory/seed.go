package memory

import (
	"time"

	"github.com/fairwaylabs/teeline/internal/domain/player"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
)

// SeedTournaments returns a small current-week schedule for local
// development without a database.
func SeedTournaments() []tournament.Tournament {
	weekStart := time.Now().UTC().Truncate(24 * time.Hour)
	weekEnd := weekStart.Add(4 * 24 * time.Hour)
	return []tournament.Tournament{
		{
			ID:        1001,
			Name:      "Travelers Championship",
			Tour:      tournament.TourPGA,
			EventType: tournament.EventTypeStroke,
			StartDate: weekStart,
			EndDate:   weekEnd,
		},
		{
			ID:        1002,
			Name:      "BMW International Open",
			Tour:      tournament.TourEuro,
			EventType: tournament.EventTypeStroke,
			StartDate: weekStart,
			EndDate:   weekEnd,
		},
		{
			ID:        1003,
			Name:      "Zurich Classic of New Orleans",
			Tour:      tournament.TourPGA,
			EventType: tournament.EventTypeTeam,
			StartDate: weekStart,
			EndDate:   weekEnd,
		},
	}
}

// SeedPlayers returns a handful of field players matching the seeded
// tournaments.
func SeedPlayers() []player.Player {
	return []player.Player{
		{DGID: 18417, Name: "Scheffler, Scottie"},
		{DGID: 15466, Name: "Rahm, Jon"},
		{DGID: 17511, Name: "Morikawa, Collin"},
		{DGID: 12965, Name: "McIlroy, Rory"},
		{DGID: 19195, Name: "Aberg, Ludvig"},
		{DGID: 16950, Name: "Fitzpatrick, Matt"},
	}
}
