package player

import "context"

// Repository describes player persistence needs from the ingestion pipeline.
type Repository interface {
	UpsertMany(ctx context.Context, players []Player) error
	GetByDGIDs(ctx context.Context, dgIDs []int64) ([]Player, error)
}
