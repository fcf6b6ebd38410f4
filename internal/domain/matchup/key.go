package matchup

import (
	"sort"
	"strconv"
	"strings"
)

// BuildKey derives the stable identifier for a market. Player ids are
// sorted ascending before concatenation so the same logical market yields
// the same key no matter which slot each player occupied in the feed.
// Format: {tournamentID}_R{round}_{kind}_{id1}_{id2}[_{id3}].
func BuildKey(tournamentID int64, round int, kind Kind, playerIDs []int64) string {
	sorted := make([]int64, len(playerIDs))
	copy(sorted, playerIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	b.WriteString(strconv.FormatInt(tournamentID, 10))
	b.WriteString("_R")
	b.WriteString(strconv.Itoa(round))
	b.WriteString("_")
	b.WriteString(string(kind))
	for _, id := range sorted {
		b.WriteString("_")
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}
