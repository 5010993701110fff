package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/predict-league/internal/domain/user"
	qb "github.com/riskibarqy/predict-league/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByFID(ctx context.Context, fid int64) (user.User, bool, error) {
	query, args, err := qb.Select("*").
		From("users").
		Where(
			qb.Eq("fid", fid),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user fid=%d: %w", fid, err)
	}

	return userRowToDomain(row), true, nil
}

func (r *UserRepository) GetOrCreate(ctx context.Context, fid int64, username, pfpURL string) (user.User, error) {
	insertModel := userInsertModel{
		FID:             fid,
		Username:        username,
		PfpURL:          pfpURL,
		Title:           user.StarterTitle,
		AvailableTitles: pq.StringArray(user.StarterTitles()),
		Level:           1,
	}
	query, args, err := qb.InsertModel("users", insertModel, `ON CONFLICT (fid)
DO UPDATE SET
    username = EXCLUDED.username,
    pfp_url = EXCLUDED.pfp_url,
    updated_at = NOW()
RETURNING *`)
	if err != nil {
		return user.User{}, fmt.Errorf("build upsert user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, fmt.Errorf("upsert user fid=%d: %w", fid, err)
	}
	return userRowToDomain(row), nil
}

func (r *UserRepository) UpdateTitle(ctx context.Context, fid int64, title string) error {
	query, args, err := qb.Update("users").
		Set("title", title).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("fid", fid),
			qb.Expr("? = ANY(available_titles)", title),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update user title query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user title fid=%d: %w", fid, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user title rows affected: %w", err)
	}
	if affected == 0 {
		return user.ErrTitleNotAvailable
	}
	return nil
}

func (r *UserRepository) ListLeaderboard(ctx context.Context, limit int) ([]user.User, error) {
	query, args, err := qb.Select("*").
		From("users").
		Where(qb.IsNull("deleted_at")).
		OrderBy("xp DESC", "total_gameweeks_played DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leaderboard query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userRowToDomain(row))
	}
	return out, nil
}

const userStatsQuery = `
SELECT ranked.*
FROM (
    SELECT users.*,
           RANK() OVER (ORDER BY level DESC, xp DESC, perfect_score DESC, total_gameweeks_played DESC) AS rank
    FROM users
    WHERE deleted_at IS NULL
) ranked
WHERE ranked.fid = $1`

func (r *UserRepository) GetStats(ctx context.Context, fid int64) (user.Stats, bool, error) {
	var row userStatsRow
	if err := r.db.GetContext(ctx, &row, userStatsQuery, fid); err != nil {
		if isNotFound(err) {
			return user.Stats{}, false, nil
		}
		return user.Stats{}, false, fmt.Errorf("get user stats fid=%d: %w", fid, err)
	}

	return user.Stats{
		User: userRowToDomain(row.userTableModel),
		Rank: row.Rank,
	}, true, nil
}

func userRowToDomain(row userTableModel) user.User {
	return user.User{
		FID:             row.FID,
		Username:        row.Username,
		PfpURL:          row.PfpURL,
		Title:           row.Title,
		AvailableTitles: append([]string(nil), row.AvailableTitles...),
		XP:              row.XP,
		Level:           row.Level,
		GameweeksPlayed: row.GameweeksPlayed,
		PerfectScores:   row.PerfectScore,
		LastPlayed:      nullTimeToPtr(row.LastPlayed),
		CreatedAt:       row.CreatedAt,
	}
}
