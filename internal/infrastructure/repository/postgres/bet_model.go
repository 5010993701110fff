package postgres

import "time"

type betTableModel struct {
	ID           int64     `db:"id"`
	FID          int64     `db:"fid"`
	MatchID      int64     `db:"match_id"`
	Gameweek     int       `db:"gameweek"`
	Prediction   string    `db:"prediction"`
	DoubleChance bool      `db:"double_chance"`
	PointsEarned int       `db:"points_earned"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type betInsertModel struct {
	FID          int64  `db:"fid"`
	MatchID      int64  `db:"match_id"`
	Gameweek     int    `db:"gameweek"`
	Prediction   string `db:"prediction"`
	DoubleChance bool   `db:"double_chance"`
}

type betSummaryRow struct {
	Gameweek   int    `db:"gameweek"`
	MatchID    int64  `db:"match_id"`
	HomeTeam   string `db:"home_team"`
	AwayTeam   string `db:"away_team"`
	Prediction string `db:"prediction"`
	Result     string `db:"result"`
	WasCorrect bool   `db:"was_correct"`
}
