package match

import "context"

// Repository exposes match persistence operations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	ListByGameweek(ctx context.Context, gameweek int) ([]Match, error)
	// ListUnprocessed returns matches still awaiting a final result, most
	// recent gameweek first and earliest kickoff first within a gameweek.
	ListUnprocessed(ctx context.Context) ([]Match, error)
	UpsertMatches(ctx context.Context, items []Match) error
}
