package usecase

import (
	"time"

	"github.com/fairwaylabs/teeline/external/datagolf"
)

// TeeSlot is a resolved tee-off for one player or group. A nil TeeTime on
// round three or later means the player missed the cut; the slot still
// exists so callers can distinguish "cut" from "not in the field".
type TeeSlot struct {
	TeeTime   *time.Time
	StartHole int
}

// BuildTeeTimeMap resolves the field feed into per-player tee slots for one
// round. Every field entry gets a slot, including players whose round tee
// time is null: their presence in the map is what marks them as cut rather
// than unknown, and it blocks the pairing-feed fallback for their markets.
func BuildTeeTimeMap(field datagolf.FieldFeed, round int) map[int64]TeeSlot {
	out := make(map[int64]TeeSlot, len(field.Field))
	for _, entry := range field.Field {
		if entry.DGID <= 0 {
			continue
		}
		slot := TeeSlot{StartHole: normalizeStartHole(entry.StartHole)}
		if raw := entry.TeeTimeForRound(round); raw != nil {
			if parsed, ok := datagolf.ParseTeeTime(*raw); ok {
				t := parsed
				slot.TeeTime = &t
			}
		}
		out[entry.DGID] = slot
	}
	return out
}

// MatchPairing finds the tee slot for a market's players in the pairings
// feed. A 2-ball matches any pairing containing both of its players, since
// the market's pair may be a subset of a three-player group on the course.
// A 3-ball must match a pairing with exactly the same three players. The
// first matching pairing wins; nil means no pairing covers the market.
func MatchPairing(pairings []datagolf.Pairing, playerIDs []int64) *TeeSlot {
	if len(playerIDs) < 2 || len(playerIDs) > 3 {
		return nil
	}
	for _, pairing := range pairings {
		groupIDs := pairing.PlayerIDs()
		var matched bool
		if len(playerIDs) == 2 {
			matched = containsAll(groupIDs, playerIDs)
		} else {
			matched = sameIDSet(groupIDs, playerIDs)
		}
		if !matched {
			continue
		}
		slot := TeeSlot{StartHole: normalizeStartHole(pairing.StartHole)}
		if parsed, ok := datagolf.ParseTeeTime(pairing.TeeTime); ok {
			t := parsed
			slot.TeeTime = &t
		}
		return &slot
	}
	return nil
}

func normalizeStartHole(hole int) int {
	if hole != 1 && hole != 10 {
		return 1
	}
	return hole
}

func containsAll(haystack, needles []int64) bool {
	for _, needle := range needles {
		found := false
		for _, candidate := range haystack {
			if candidate == needle {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	return containsAll(a, b) && containsAll(b, a)
}
