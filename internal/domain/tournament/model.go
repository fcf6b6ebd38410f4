package tournament

import (
	"strings"
	"time"
)

// Tour identifies which professional tour a feed or tournament belongs to.
type Tour string

const (
	TourPGA  Tour = "pga"
	TourOpp  Tour = "opp"
	TourEuro Tour = "euro"
	TourAlt  Tour = "alt"
)

var AllTours = map[Tour]struct{}{
	TourPGA:  {},
	TourOpp:  {},
	TourEuro: {},
	TourAlt:  {},
}

func ParseTour(raw string) (Tour, bool) {
	tour := Tour(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := AllTours[tour]
	return tour, ok
}

// EventType distinguishes stroke-play events from formats the store
// intentionally excludes (team and limited-field exhibition events).
type EventType string

const (
	EventTypeStroke EventType = "stroke"
	EventTypeTeam   EventType = "team"
)

// Tournament is the authoritative identity markets are reconciled against.
// Rows are owned by the scheduling side; the ingestion pipeline only reads
// them and records learned name aliases.
type Tournament struct {
	ID        int64
	Name      string
	Tour      Tour
	EventType EventType
	StartDate time.Time
	EndDate   time.Time
}

// Alias is a learned mapping from an observed feed event name to a
// tournament, recorded after a fuzzy match so future lookups are exact.
type Alias struct {
	TournamentID   int64
	NormalizedName string
	Source         string
	CreatedAt      time.Time
}

// NormalizeName collapses an event name to the form used for alias and
// exact-match lookups.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && b.String()[b.Len()-1] != ' ' {
				b.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(b.String())
}
