package settlement

import (
	"context"

	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	"github.com/riskibarqy/predict-league/internal/domain/match"
)

// Repository exposes the bulk scoring operations the settlement phases run.
// Every operation is idempotent against unchanged state so an interrupted
// run can safely re-execute on the next tick.
type Repository interface {
	// ApplyMatchResult marks the match finished with the result and awards
	// points to matching bets in one transaction. Bets with nonzero points
	// are excluded by predicate, so re-applying the same result is a no-op.
	ApplyMatchResult(ctx context.Context, matchID int64, result match.Result) (MatchOutcome, error)

	// AwardPerfectScores credits the perfect-score counter for every user
	// whose gameweek bets are all on finished matches, all correct, and at
	// least PerfectScoreMinBets in number. Crediting goes through the
	// per-(user, gameweek) award marker, so a user can never be credited
	// twice for the same gameweek no matter how often this runs.
	AwardPerfectScores(ctx context.Context, gw int) ([]int64, error)

	// CollectGameweekStats aggregates bet counts, distinct players and the
	// highest per-user score for one gameweek.
	CollectGameweekStats(ctx context.Context, gw int) (gameweek.Stats, error)

	// RecomputeAllUserXP rewrites every user's xp as the sum of their
	// bets' points_earned and returns the number of rows touched.
	RecomputeAllUserXP(ctx context.Context) (int64, error)

	// ListUnsettledWinningBets returns winning bets on finished matches
	// that still show zero points. Expected to be empty after scoring.
	ListUnsettledWinningBets(ctx context.Context) ([]UnsettledBet, error)

	// ListCompletableGameweeks returns gameweek numbers whose end date has
	// passed, whose matches all carry a result, and that are not yet
	// marked complete.
	ListCompletableGameweeks(ctx context.Context) ([]int, error)

	// CountUnprocessedWinningBets counts winning bets without points in
	// one gameweek, the final guard before completion.
	CountUnprocessedWinningBets(ctx context.Context, gw int) (int, error)

	// MarkGameweekCompleted flips points_calculated. One-way.
	MarkGameweekCompleted(ctx context.Context, gw int) error
}
