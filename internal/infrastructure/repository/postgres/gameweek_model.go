package postgres

import "time"

type gameweekTableModel struct {
	Number           int        `db:"gameweek_number"`
	StartDate        time.Time  `db:"start_date"`
	EndDate          time.Time  `db:"end_date"`
	PointsCalculated bool       `db:"points_calculated"`
	TotalBets        int        `db:"total_bets"`
	TotalPlayers     int        `db:"total_players"`
	TopScore         int        `db:"top_score"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

type gameweekInsertModel struct {
	Number    int       `db:"gameweek_number"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}
