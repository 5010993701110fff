package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID         int64          `db:"id"`
	ExternalID int64          `db:"external_id"`
	Gameweek   int            `db:"gameweek"`
	HomeTeamID int64          `db:"home_team_id"`
	AwayTeamID int64          `db:"away_team_id"`
	HomeTeam   string         `db:"home_team"`
	AwayTeam   string         `db:"away_team"`
	KickoffAt  time.Time      `db:"kickoff_time"`
	Deadline   time.Time      `db:"deadline"`
	Started    bool           `db:"started"`
	Minutes    int            `db:"minutes"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	IsFinished bool           `db:"is_finished"`
	Result     sql.NullString `db:"result"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
	DeletedAt  *time.Time     `db:"deleted_at"`
}

type matchInsertModel struct {
	ID         int64     `db:"id"`
	ExternalID int64     `db:"external_id"`
	Gameweek   int       `db:"gameweek"`
	HomeTeamID int64     `db:"home_team_id"`
	AwayTeamID int64     `db:"away_team_id"`
	HomeTeam   string    `db:"home_team"`
	AwayTeam   string    `db:"away_team"`
	KickoffAt  time.Time `db:"kickoff_time"`
	Deadline   time.Time `db:"deadline"`
	Started    bool      `db:"started"`
	Minutes    int       `db:"minutes"`
	HomeScore  *int      `db:"home_score"`
	AwayScore  *int      `db:"away_score"`
	IsFinished bool      `db:"is_finished"`
	Result     *string   `db:"result"`
}
