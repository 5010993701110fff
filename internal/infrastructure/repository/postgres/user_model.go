package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type userTableModel struct {
	FID             int64          `db:"fid"`
	Username        string         `db:"username"`
	PfpURL          string         `db:"pfp_url"`
	Title           string         `db:"title"`
	AvailableTitles pq.StringArray `db:"available_titles"`
	XP              int            `db:"xp"`
	Level           int            `db:"level"`
	GameweeksPlayed int            `db:"total_gameweeks_played"`
	PerfectScore    int            `db:"perfect_score"`
	LastPlayed      sql.NullTime   `db:"last_played"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type userInsertModel struct {
	FID             int64          `db:"fid"`
	Username        string         `db:"username"`
	PfpURL          string         `db:"pfp_url"`
	Title           string         `db:"title"`
	AvailableTitles pq.StringArray `db:"available_titles"`
	XP              int            `db:"xp"`
	Level           int            `db:"level"`
	GameweeksPlayed int            `db:"total_gameweeks_played"`
	PerfectScore    int            `db:"perfect_score"`
	LastPlayed      *time.Time     `db:"last_played"`
}

type userStatsRow struct {
	userTableModel
	Rank int `db:"rank"`
}
