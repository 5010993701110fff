package gameweek

import "time"

// GraceWindow extends a gameweek's end date past its final kickoff so late
// finishing matches still settle inside the same gameweek.
const GraceWindow = 4 * time.Hour

// Gameweek is one round of the betting calendar. The lifecycle is one-way:
// not-yet-created, initialized (points_calculated=false), completed.
type Gameweek struct {
	Number           int
	StartDate        time.Time
	EndDate          time.Time
	PointsCalculated bool
	TotalBets        int
	TotalPlayers     int
	TopScore         int
	CreatedAt        time.Time
}

// Stats are the aggregate counters recomputed while a gameweek settles.
// They only ever grow; a recompute never lowers a previously stored value.
type Stats struct {
	TotalBets    int
	TotalPlayers int
	TopScore     int
}

// EndDateFor derives the gameweek end from its last kickoff.
func EndDateFor(lastKickoff time.Time) time.Time {
	return lastKickoff.Add(GraceWindow)
}
