package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	qb "github.com/riskibarqy/predict-league/internal/platform/querybuilder"
)

type BetRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewBetRepository(db *sqlx.DB) *BetRepository {
	return &BetRepository{db: db, now: time.Now}
}

// Place verifies the betting deadline and writes the bet in one transaction.
// The deadline row is read inside the transaction so a concurrent settlement
// pass cannot slip between the check and the write.
func (r *BetRepository) Place(ctx context.Context, b bet.Bet) (bet.Bet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return bet.Bet{}, fmt.Errorf("begin tx place bet: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deadlineQuery, deadlineArgs, err := qb.Select("deadline", "gameweek").
		From("matches").
		Where(
			qb.Eq("id", b.MatchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return bet.Bet{}, fmt.Errorf("build select match deadline query: %w", err)
	}

	var row struct {
		Deadline time.Time `db:"deadline"`
		Gameweek int       `db:"gameweek"`
	}
	if err := tx.GetContext(ctx, &row, deadlineQuery, deadlineArgs...); err != nil {
		if isNotFound(err) {
			return bet.Bet{}, bet.ErrMatchNotFound
		}
		return bet.Bet{}, fmt.Errorf("select match deadline match_id=%d: %w", b.MatchID, err)
	}
	if !match.BettingOpen(r.now(), row.Deadline) {
		return bet.Bet{}, bet.ErrBettingClosed
	}

	insertModel := betInsertModel{
		FID:          b.FID,
		MatchID:      b.MatchID,
		Gameweek:     row.Gameweek,
		Prediction:   b.Prediction,
		DoubleChance: b.DoubleChance,
	}
	query, args, err := qb.InsertModel("bets", insertModel, `ON CONFLICT (fid, match_id)
DO UPDATE SET
    prediction = EXCLUDED.prediction,
    double_chance = EXCLUDED.double_chance,
    updated_at = NOW()
RETURNING *`)
	if err != nil {
		return bet.Bet{}, fmt.Errorf("build upsert bet query: %w", err)
	}

	var saved betTableModel
	if err := tx.GetContext(ctx, &saved, query, args...); err != nil {
		return bet.Bet{}, fmt.Errorf("upsert bet fid=%d match_id=%d: %w", b.FID, b.MatchID, err)
	}

	touchQuery, touchArgs, err := qb.Update("users").
		SetExpr("last_played", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("fid", b.FID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return bet.Bet{}, fmt.Errorf("build touch user last played query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, touchQuery, touchArgs...); err != nil {
		return bet.Bet{}, fmt.Errorf("touch user last played fid=%d: %w", b.FID, err)
	}

	if err := tx.Commit(); err != nil {
		return bet.Bet{}, fmt.Errorf("commit place bet tx: %w", err)
	}
	return betRowToDomain(saved), nil
}

func (r *BetRepository) ListByUserAndGameweek(ctx context.Context, fid int64, gameweek int) ([]bet.Bet, error) {
	query, args, err := qb.Select("*").
		From("bets").
		Where(
			qb.Eq("fid", fid),
			qb.Eq("gameweek", gameweek),
			qb.IsNull("deleted_at"),
		).
		OrderBy("match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bets by user query: %w", err)
	}

	var rows []betTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bets fid=%d gameweek=%d: %w", fid, gameweek, err)
	}

	out := make([]bet.Bet, 0, len(rows))
	for _, row := range rows {
		out = append(out, betRowToDomain(row))
	}
	return out, nil
}

func (r *BetRepository) ListByMatch(ctx context.Context, matchID int64) ([]bet.Bet, error) {
	query, args, err := qb.Select("*").
		From("bets").
		Where(
			qb.Eq("match_id", matchID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bets by match query: %w", err)
	}

	var rows []betTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bets match_id=%d: %w", matchID, err)
	}

	out := make([]bet.Bet, 0, len(rows))
	for _, row := range rows {
		out = append(out, betRowToDomain(row))
	}
	return out, nil
}

const gameweekSummariesQuery = `
SELECT bets.gameweek,
       bets.match_id,
       matches.home_team,
       matches.away_team,
       bets.prediction,
       COALESCE(matches.result, '') AS result,
       (bets.prediction = matches.result) AS was_correct
FROM bets
JOIN matches ON matches.id = bets.match_id
WHERE bets.fid = $1
  AND bets.gameweek < $2
  AND matches.is_finished = true
  AND matches.result IS NOT NULL
  AND bets.deleted_at IS NULL
  AND matches.deleted_at IS NULL
ORDER BY bets.gameweek DESC, matches.kickoff_time ASC
LIMIT $3`

func (r *BetRepository) ListGameweekSummaries(ctx context.Context, fid int64, beforeGameweek, limit int) ([]bet.GameweekSummary, error) {
	var rows []betSummaryRow
	if err := r.db.SelectContext(ctx, &rows, gameweekSummariesQuery, fid, beforeGameweek, limit); err != nil {
		return nil, fmt.Errorf("list gameweek summaries fid=%d: %w", fid, err)
	}

	out := make([]bet.GameweekSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, bet.GameweekSummary{
			Gameweek:   row.Gameweek,
			MatchID:    row.MatchID,
			HomeTeam:   row.HomeTeam,
			AwayTeam:   row.AwayTeam,
			Prediction: row.Prediction,
			Result:     row.Result,
			WasCorrect: row.WasCorrect,
		})
	}
	return out, nil
}

func betRowToDomain(row betTableModel) bet.Bet {
	return bet.Bet{
		ID:           row.ID,
		FID:          row.FID,
		MatchID:      row.MatchID,
		Gameweek:     row.Gameweek,
		Prediction:   row.Prediction,
		DoubleChance: row.DoubleChance,
		PointsEarned: row.PointsEarned,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
