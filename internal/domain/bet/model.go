package bet

import "time"

// Bet is one user's prediction for one match. Uniqueness is enforced on
// (fid, match_id); edits up to the betting deadline overwrite in place.
type Bet struct {
	ID           int64
	FID          int64
	MatchID      int64
	Gameweek     int
	Prediction   string
	DoubleChance bool
	PointsEarned int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GameweekSummary is a settled bet joined with its match outcome, used for
// the previous-gameweek review screen.
type GameweekSummary struct {
	Gameweek   int
	MatchID    int64
	HomeTeam   string
	AwayTeam   string
	Prediction string
	Result     string
	WasCorrect bool
}
