package usecase

import (
	"strings"

	"github.com/fairwaylabs/teeline/external/datagolf"
	"github.com/fairwaylabs/teeline/internal/domain/matchup"
)

// modelBook is the provider's own model-derived price, posted alongside the
// sportsbook odds under its own key. It is never part of the book fallback
// chain.
const modelBook = "datagolf"

// DefaultBookPriority is the fallback order used for odds availability
// checks when the primary book does not quote a market.
var DefaultBookPriority = []string{"fanduel", "draftkings", "betmgm", "caesars", "bet365", "pointsbet"}

// OddsExtractor applies the book-selection policies to a raw odds map.
// The stored primary odds are strict primary-book-only: a market the
// primary book skips persists with nil prices rather than silently
// substituting another book's line. The priority chain only answers
// "does anyone quote this" for diagnostics.
type OddsExtractor struct {
	PrimaryBook string
	Priority    []string
}

func NewOddsExtractor(primaryBook string, priority []string) OddsExtractor {
	primaryBook = strings.ToLower(strings.TrimSpace(primaryBook))
	if primaryBook == "" {
		primaryBook = DefaultBookPriority[0]
	}
	if len(priority) == 0 {
		priority = DefaultBookPriority
	}
	return OddsExtractor{PrimaryBook: primaryBook, Priority: priority}
}

// PrimaryBookOdds returns the primary book's price for a player slot
// (1-based), nil when the book does not quote the slot.
func (e OddsExtractor) PrimaryBookOdds(odds map[string]datagolf.BookOdds, slot int) *float64 {
	return slotPrice(odds, e.PrimaryBook, slot)
}

// BestAvailableOdds walks the priority chain and returns the first book
// quoting the slot, with the book name.
func (e OddsExtractor) BestAvailableOdds(odds map[string]datagolf.BookOdds, slot int) (*float64, string) {
	for _, book := range e.Priority {
		if price := slotPrice(odds, book, slot); price != nil {
			return price, book
		}
	}
	return nil, ""
}

// ModelOdds returns the provider's model price for the slot, independent of
// any sportsbook.
func (e OddsExtractor) ModelOdds(odds map[string]datagolf.BookOdds, slot int) *float64 {
	return slotPrice(odds, modelBook, slot)
}

// HasCompleteOdds reports whether the primary book quotes every player in
// the market. One missing slot makes the whole market incomplete.
func (e OddsExtractor) HasCompleteOdds(m matchup.Matchup) bool {
	for _, player := range m.Players {
		if player.PrimaryOdds == nil {
			return false
		}
	}
	return len(m.Players) > 0
}

func slotPrice(odds map[string]datagolf.BookOdds, book string, slot int) *float64 {
	prices, ok := odds[book]
	if !ok {
		return nil
	}
	switch slot {
	case 1:
		return prices.P1
	case 2:
		return prices.P2
	case 3:
		return prices.P3
	default:
		return nil
	}
}
