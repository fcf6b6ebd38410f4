package datagolf

import (
	"encoding/json"
	"strings"
	"time"
)

const feedTimestampSuffix = " UTC"

// MatchupsFeed is the envelope shared by the 3-ball and 2-ball (round
// matchup) feeds. MatchList stays raw because the provider substitutes a
// human-readable error string for the array when no markets are posted.
type MatchupsFeed struct {
	EventName   string          `json:"event_name"`
	Round       int             `json:"round_num"`
	LastUpdated string          `json:"last_updated"`
	MatchList   json.RawMessage `json:"match_list"`
}

// RawMatchup is one market as the provider posts it. P3 fields are zero
// for 2-ball markets.
type RawMatchup struct {
	P1DGID int64               `json:"p1_dg_id"`
	P1Name string              `json:"p1_player_name"`
	P2DGID int64               `json:"p2_dg_id"`
	P2Name string              `json:"p2_player_name"`
	P3DGID int64               `json:"p3_dg_id"`
	P3Name string              `json:"p3_player_name"`
	Ties   string              `json:"ties"`
	Odds   map[string]BookOdds `json:"odds"`
}

// BookOdds is one sportsbook's prices for the market's player slots.
type BookOdds struct {
	P1 *float64 `json:"p1"`
	P2 *float64 `json:"p2"`
	P3 *float64 `json:"p3"`
}

// PlayerIDs returns the non-zero dg ids in slot order.
func (m RawMatchup) PlayerIDs() []int64 {
	ids := make([]int64, 0, 3)
	for _, id := range []int64{m.P1DGID, m.P2DGID, m.P3DGID} {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// PairingsFeed carries the provider's model-computed pairings for every
// group in the field, used as a fallback tee-time source.
type PairingsFeed struct {
	EventName   string    `json:"event_name"`
	Round       int       `json:"round_num"`
	LastUpdated string    `json:"last_updated"`
	Pairings    []Pairing `json:"pairings"`
}

// Pairing is a provider-computed group of up to three players teeing off
// together. P3DGID is zero for two-player groups.
type Pairing struct {
	P1DGID    int64  `json:"p1_dg_id"`
	P2DGID    int64  `json:"p2_dg_id"`
	P3DGID    int64  `json:"p3_dg_id"`
	TeeTime   string `json:"teetime"`
	StartHole int    `json:"start_hole"`
}

// PlayerIDs returns the non-zero dg ids of the pairing.
func (p Pairing) PlayerIDs() []int64 {
	ids := make([]int64, 0, 3)
	for _, id := range []int64{p.P1DGID, p.P2DGID, p.P3DGID} {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// FieldFeed is the field/tee-time updates feed.
type FieldFeed struct {
	EventName    string       `json:"event_name"`
	CurrentRound int          `json:"current_round"`
	LastUpdated  string       `json:"last_updated"`
	Field        []FieldEntry `json:"field"`
}

// FieldEntry is one player's round-keyed tee times. A nil round tee time
// on round three or later signals a missed cut, not missing data.
type FieldEntry struct {
	DGID       int64   `json:"dg_id"`
	PlayerName string  `json:"player_name"`
	StartHole  int     `json:"start_hole"`
	R1TeeTime  *string `json:"r1_teetime"`
	R2TeeTime  *string `json:"r2_teetime"`
	R3TeeTime  *string `json:"r3_teetime"`
	R4TeeTime  *string `json:"r4_teetime"`
}

// TeeTimeForRound returns the raw round-specific tee time, nil when the
// provider posted null for that round.
func (e FieldEntry) TeeTimeForRound(round int) *string {
	switch round {
	case 1:
		return e.R1TeeTime
	case 2:
		return e.R2TeeTime
	case 3:
		return e.R3TeeTime
	case 4:
		return e.R4TeeTime
	default:
		return nil
	}
}

// ParseFeedTimestamp parses the provider's "YYYY-MM-DD HH:MM:SS UTC"
// last-updated format.
func ParseFeedTimestamp(raw string) (time.Time, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), feedTimestampSuffix)
	if trimmed == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// ParseTeeTime parses a tee time string from the field or pairings feeds.
// The provider posts instants already converted to UTC, with or without
// seconds.
func ParseTeeTime(raw string) (time.Time, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), feedTimestampSuffix)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
