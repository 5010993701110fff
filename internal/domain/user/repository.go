package user

import (
	"context"
	"errors"
)

// ErrTitleNotAvailable is returned when a user tries to equip a title
// they have not unlocked.
var ErrTitleNotAvailable = errors.New("title not available")

// Repository exposes user persistence operations.
type Repository interface {
	GetByFID(ctx context.Context, fid int64) (User, bool, error)
	// GetOrCreate lazily registers a user on first interaction. Existing
	// users get their display name and picture refreshed when changed.
	GetOrCreate(ctx context.Context, fid int64, username, pfpURL string) (User, error)
	UpdateTitle(ctx context.Context, fid int64, title string) error
	ListLeaderboard(ctx context.Context, limit int) ([]User, error)
	GetStats(ctx context.Context, fid int64) (Stats, bool, error)
}
