package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	qb "github.com/riskibarqy/predict-league/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match id=%d: %w", id, err)
	}
	return matchRowToDomain(row), true, nil
}

func (r *MatchRepository) ListByGameweek(ctx context.Context, gameweek int) ([]match.Match, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(
			qb.Eq("gameweek", gameweek),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by gameweek query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches gameweek=%d: %w", gameweek, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchRowToDomain(row))
	}
	return out, nil
}

func (r *MatchRepository) ListUnprocessed(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").
		From("matches").
		Where(
			qb.Expr("(is_finished = false OR result IS NULL)"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("gameweek DESC", "kickoff_time ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unprocessed matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unprocessed matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchRowToDomain(row))
	}
	return out, nil
}

func (r *MatchRepository) UpsertMatches(ctx context.Context, items []match.Match) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert matches: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := matchInsertModel{
			ID:         item.ID,
			ExternalID: item.ExternalID,
			Gameweek:   item.Gameweek,
			HomeTeamID: item.HomeTeamID,
			AwayTeamID: item.AwayTeamID,
			HomeTeam:   item.HomeTeam,
			AwayTeam:   item.AwayTeam,
			KickoffAt:  item.KickoffAt.UTC(),
			Deadline:   item.Deadline.UTC(),
			Started:    item.Started,
			Minutes:    item.Minutes,
			HomeScore:  item.HomeScore,
			AwayScore:  item.AwayScore,
			IsFinished: item.IsFinished,
			Result:     resultToPtr(item.Result),
		}
		query, args, err := qb.InsertModel("matches", insertModel, `ON CONFLICT (id)
DO UPDATE SET
    started = EXCLUDED.started,
    minutes = EXCLUDED.minutes,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    is_finished = EXCLUDED.is_finished,
    kickoff_time = EXCLUDED.kickoff_time,
    deadline = EXCLUDED.deadline,
    result = COALESCE(matches.result, EXCLUDED.result),
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match id=%d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert matches tx: %w", err)
	}
	return nil
}

func matchRowToDomain(row matchTableModel) match.Match {
	out := match.Match{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		Gameweek:   row.Gameweek,
		HomeTeamID: row.HomeTeamID,
		AwayTeamID: row.AwayTeamID,
		HomeTeam:   row.HomeTeam,
		AwayTeam:   row.AwayTeam,
		KickoffAt:  row.KickoffAt,
		Deadline:   row.Deadline,
		Started:    row.Started,
		Minutes:    row.Minutes,
		HomeScore:  nullInt64ToPtr(row.HomeScore),
		AwayScore:  nullInt64ToPtr(row.AwayScore),
		IsFinished: row.IsFinished,
	}
	if row.Result.Valid {
		result := match.Result(row.Result.String)
		out.Result = &result
	}
	return out
}

func resultToPtr(result *match.Result) *string {
	if result == nil {
		return nil
	}
	s := string(*result)
	return &s
}
