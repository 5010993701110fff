package match

import (
	"fmt"
	"time"
)

// Result encodes a final match outcome: home win, draw, away win.
type Result string

const (
	ResultHomeWin Result = "1"
	ResultDraw    Result = "X"
	ResultAwayWin Result = "2"
)

// DeadlineOffset is subtracted from kickoff to produce the betting deadline.
const DeadlineOffset = 60 * time.Minute

// Match is one fixture inside a gameweek.
type Match struct {
	ID         int64
	ExternalID int64
	Gameweek   int
	HomeTeamID int64
	AwayTeamID int64
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Deadline   time.Time
	Started    bool
	Minutes    int
	HomeScore  *int
	AwayScore  *int
	IsFinished bool
	Result     *Result
}

func IsValidResult(value string) bool {
	switch Result(value) {
	case ResultHomeWin, ResultDraw, ResultAwayWin:
		return true
	default:
		return false
	}
}

// SyntheticID builds the globally unique match id from the kickoff year,
// gameweek and provider fixture id. The layout is YYGGGEEEEE rendered as a
// number, so ids stay human-traceable and never collide across seasons.
func SyntheticID(kickoffYear, gameweek int, externalID int64) int64 {
	year := int64(kickoffYear % 100)
	return year*1_0000000 + int64(gameweek)*1_00000 + externalID
}

// DeadlineFor computes the betting deadline for a kickoff time.
func DeadlineFor(kickoffAt time.Time) time.Time {
	return kickoffAt.Add(-DeadlineOffset)
}

// BettingOpen reports whether a bet arriving at now still beats the
// deadline. The exact deadline instant is already closed.
func BettingOpen(now, deadline time.Time) bool {
	return now.Before(deadline)
}

func (m Match) String() string {
	return fmt.Sprintf("%s vs %s (gw %d)", m.HomeTeam, m.AwayTeam, m.Gameweek)
}
