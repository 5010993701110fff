package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	qb "github.com/riskibarqy/predict-league/internal/platform/querybuilder"
)

type GameweekRepository struct {
	db *sqlx.DB
}

func NewGameweekRepository(db *sqlx.DB) *GameweekRepository {
	return &GameweekRepository{db: db}
}

func (r *GameweekRepository) Get(ctx context.Context, number int) (gameweek.Gameweek, bool, error) {
	query, args, err := qb.Select("*").
		From("gameweeks").
		Where(
			qb.Eq("gameweek_number", number),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return gameweek.Gameweek{}, false, fmt.Errorf("build get gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Gameweek{}, false, nil
		}
		return gameweek.Gameweek{}, false, fmt.Errorf("get gameweek number=%d: %w", number, err)
	}
	return gameweekRowToDomain(row), true, nil
}

func (r *GameweekRepository) GetCurrent(ctx context.Context) (gameweek.Gameweek, bool, error) {
	query, args, err := qb.Select("*").
		From("gameweeks").
		Where(qb.IsNull("deleted_at")).
		OrderBy("gameweek_number DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return gameweek.Gameweek{}, false, fmt.Errorf("build get current gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Gameweek{}, false, nil
		}
		return gameweek.Gameweek{}, false, fmt.Errorf("get current gameweek: %w", err)
	}
	return gameweekRowToDomain(row), true, nil
}

func (r *GameweekRepository) GetLatestCompleted(ctx context.Context) (gameweek.Gameweek, bool, error) {
	query, args, err := qb.Select("*").
		From("gameweeks").
		Where(
			qb.Eq("points_calculated", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("gameweek_number DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return gameweek.Gameweek{}, false, fmt.Errorf("build get latest completed gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Gameweek{}, false, nil
		}
		return gameweek.Gameweek{}, false, fmt.Errorf("get latest completed gameweek: %w", err)
	}
	return gameweekRowToDomain(row), true, nil
}

func (r *GameweekRepository) Insert(ctx context.Context, gw gameweek.Gameweek) error {
	insertModel := gameweekInsertModel{
		Number:    gw.Number,
		StartDate: gw.StartDate.UTC(),
		EndDate:   gw.EndDate.UTC(),
	}
	query, args, err := qb.InsertModel("gameweeks", insertModel, `ON CONFLICT (gameweek_number) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build insert gameweek query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert gameweek number=%d: %w", gw.Number, err)
	}
	return nil
}

func (r *GameweekRepository) RaiseStats(ctx context.Context, number int, stats gameweek.Stats) error {
	query, args, err := qb.Update("gameweeks").
		SetExpr("total_bets", "GREATEST(total_bets, ?)", stats.TotalBets).
		SetExpr("total_players", "GREATEST(total_players, ?)", stats.TotalPlayers).
		SetExpr("top_score", "GREATEST(top_score, ?)", stats.TopScore).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("gameweek_number", number),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build raise gameweek stats query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("raise gameweek stats number=%d: %w", number, err)
	}
	return nil
}

func gameweekRowToDomain(row gameweekTableModel) gameweek.Gameweek {
	return gameweek.Gameweek{
		Number:           row.Number,
		StartDate:        row.StartDate,
		EndDate:          row.EndDate,
		PointsCalculated: row.PointsCalculated,
		TotalBets:        row.TotalBets,
		TotalPlayers:     row.TotalPlayers,
		TopScore:         row.TopScore,
		CreatedAt:        row.CreatedAt,
	}
}
