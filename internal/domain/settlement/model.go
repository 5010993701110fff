package settlement

import "time"

// CorrectPredictionPoints is the fixed reward for one correct prediction.
const CorrectPredictionPoints = 1

// PerfectScoreMinBets is the minimum number of all-correct bets in one
// gameweek before the perfect-score counter is credited.
const PerfectScoreMinBets = 3

// PredictionBreakdown counts bets per predicted outcome for one match.
type PredictionBreakdown struct {
	Home int
	Draw int
	Away int
}

// MatchOutcome summarizes what settling one match changed.
type MatchOutcome struct {
	MatchID            int64
	ExternalID         int64
	Gameweek           int
	Result             string
	TotalBets          int
	AwardedBets        int
	CorrectPredictions int
	Breakdown          PredictionBreakdown
}

// UnsettledBet is a winning bet that still shows zero points after the
// scoring phases ran. A non-empty set signals a reconciliation fault.
type UnsettledBet struct {
	BetID   int64
	FID     int64
	MatchID int64
}

// RunReport aggregates one settlement run for logging and notification.
type RunReport struct {
	StartedAt          time.Time
	SettledMatches     []MatchOutcome
	PerfectScoreFIDs   []int64
	UsersReconciled    int64
	CompletedGameweeks []int
	InitializedGW      int
}
