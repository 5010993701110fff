package bet

import (
	"context"
	"errors"
)

// ErrBettingClosed is returned when a bet arrives at or after the deadline.
var ErrBettingClosed = errors.New("betting deadline has passed")

// ErrMatchNotFound is returned when the referenced match does not exist.
var ErrMatchNotFound = errors.New("match not found")

// Repository exposes bet persistence operations.
type Repository interface {
	// Place upserts the (fid, match) bet inside one transaction that also
	// verifies the deadline and touches the user's last-played timestamp.
	// The deadline check happens inside the writing transaction so the
	// check and the write cannot race.
	Place(ctx context.Context, b Bet) (Bet, error)
	ListByUserAndGameweek(ctx context.Context, fid int64, gameweek int) ([]Bet, error)
	ListByMatch(ctx context.Context, matchID int64) ([]Bet, error)
	ListGameweekSummaries(ctx context.Context, fid int64, beforeGameweek int, limit int) ([]GameweekSummary, error)
}
