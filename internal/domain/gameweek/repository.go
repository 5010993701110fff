package gameweek

import "context"

// Repository exposes gameweek persistence operations.
type Repository interface {
	Get(ctx context.Context, number int) (Gameweek, bool, error)
	// GetCurrent returns the newest gameweek that has been initialized.
	GetCurrent(ctx context.Context) (Gameweek, bool, error)
	GetLatestCompleted(ctx context.Context) (Gameweek, bool, error)
	// Insert creates the row if absent and is a no-op when the number
	// already exists.
	Insert(ctx context.Context, gw Gameweek) error
	// RaiseStats applies aggregates monotonically, never lowering a value.
	RaiseStats(ctx context.Context, number int, stats Stats) error
}
