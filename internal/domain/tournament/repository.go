package tournament

import "context"

// Repository describes tournament reads needed by the resolver.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Tournament, bool, error)
	FindByNormalizedName(ctx context.Context, normalizedName string, tour Tour) (Tournament, bool, error)
	ListCurrentByTour(ctx context.Context, tour Tour) ([]Tournament, error)
}

// AliasRepository stores learned event-name aliases.
type AliasRepository interface {
	FindByNormalizedName(ctx context.Context, normalizedName string, tour Tour) (int64, bool, error)
	Record(ctx context.Context, alias Alias) error
}
