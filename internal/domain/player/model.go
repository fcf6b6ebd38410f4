package player

import (
	"fmt"
	"strings"
)

// Player is a golfer referenced by markets. Identity is the provider's
// dg_id; rows are created or renamed whenever a feed observes a new name
// and are never deleted by the ingestion pipeline.
type Player struct {
	DGID int64
	Name string
}

func (p Player) Validate() error {
	if p.DGID <= 0 {
		return fmt.Errorf("player dg_id must be greater than zero")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}
