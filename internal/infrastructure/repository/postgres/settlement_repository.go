package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/settlement"
	qb "github.com/riskibarqy/predict-league/internal/platform/querybuilder"
)

type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// ApplyMatchResult writes the result and awards points in one transaction.
// The points update only touches bets that still show zero points, so
// replaying the same result changes nothing.
func (r *SettlementRepository) ApplyMatchResult(ctx context.Context, matchID int64, result match.Result) (settlement.MatchOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("begin tx apply match result: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	matchQuery, matchArgs, err := qb.Select("*").
		From("matches").
		Where(
			qb.Eq("id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("build select match query: %w", err)
	}
	var matchRow matchTableModel
	if err := tx.GetContext(ctx, &matchRow, matchQuery, matchArgs...); err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("select match id=%d: %w", matchID, err)
	}

	updateQuery, updateArgs, err := qb.Update("matches").
		Set("result", string(result)).
		Set("is_finished", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("build update match result query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("update match result id=%d: %w", matchID, err)
	}

	awardQuery, awardArgs, err := qb.Update("bets").
		Set("points_earned", settlement.CorrectPredictionPoints).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("prediction", string(result)),
			qb.Expr("(points_earned IS NULL OR points_earned = 0)"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("build award bet points query: %w", err)
	}
	awardRes, err := tx.ExecContext(ctx, awardQuery, awardArgs...)
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("award bet points match_id=%d: %w", matchID, err)
	}
	awarded, err := awardRes.RowsAffected()
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("award bet points rows affected: %w", err)
	}

	breakdownQuery, breakdownArgs, err := qb.Select("prediction", "COUNT(*) AS total").
		From("bets").
		Where(
			qb.Eq("match_id", matchID),
			qb.IsNull("deleted_at"),
		).
		GroupBy("prediction").
		ToSQL()
	if err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("build bet breakdown query: %w", err)
	}
	var breakdownRows []struct {
		Prediction string `db:"prediction"`
		Total      int    `db:"total"`
	}
	if err := tx.SelectContext(ctx, &breakdownRows, breakdownQuery, breakdownArgs...); err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("bet breakdown match_id=%d: %w", matchID, err)
	}

	if err := tx.Commit(); err != nil {
		return settlement.MatchOutcome{}, fmt.Errorf("commit apply match result tx: %w", err)
	}

	outcome := settlement.MatchOutcome{
		MatchID:     matchID,
		ExternalID:  matchRow.ExternalID,
		Gameweek:    matchRow.Gameweek,
		Result:      string(result),
		AwardedBets: int(awarded),
	}
	for _, row := range breakdownRows {
		outcome.TotalBets += row.Total
		switch match.Result(row.Prediction) {
		case match.ResultHomeWin:
			outcome.Breakdown.Home = row.Total
		case match.ResultDraw:
			outcome.Breakdown.Draw = row.Total
		case match.ResultAwayWin:
			outcome.Breakdown.Away = row.Total
		}
		if match.Result(row.Prediction) == result {
			outcome.CorrectPredictions = row.Total
		}
	}
	return outcome, nil
}

const awardPerfectScoresQuery = `
WITH eligible AS (
    SELECT b.fid
    FROM bets b
    JOIN matches m ON m.id = b.match_id
    WHERE b.gameweek = $1
      AND m.is_finished = true
      AND m.result IS NOT NULL
      AND b.deleted_at IS NULL
      AND m.deleted_at IS NULL
    GROUP BY b.fid
    HAVING COUNT(*) >= $2
       AND COUNT(*) = COUNT(*) FILTER (WHERE b.prediction = m.result)
),
landed AS (
    INSERT INTO perfect_score_awards (fid, gameweek)
    SELECT fid, $1 FROM eligible
    ON CONFLICT (fid, gameweek) DO NOTHING
    RETURNING fid
)
UPDATE users
SET perfect_score = perfect_score + 1,
    updated_at = NOW()
FROM landed
WHERE users.fid = landed.fid
RETURNING users.fid`

// AwardPerfectScores credits at most once per (user, gameweek). The insert
// into the award marker gates the counter increment, so re-running after a
// crash or on the next tick never double counts.
func (r *SettlementRepository) AwardPerfectScores(ctx context.Context, gw int) ([]int64, error) {
	var fids []int64
	if err := r.db.SelectContext(ctx, &fids, awardPerfectScoresQuery, gw, settlement.PerfectScoreMinBets); err != nil {
		return nil, fmt.Errorf("award perfect scores gameweek=%d: %w", gw, err)
	}
	return fids, nil
}

const gameweekStatsQuery = `
SELECT COUNT(*) AS total_bets,
       COUNT(DISTINCT fid) AS total_players,
       COALESCE((
           SELECT MAX(score) FROM (
               SELECT SUM(COALESCE(points_earned, 0)) AS score
               FROM bets
               WHERE gameweek = $1
                 AND deleted_at IS NULL
               GROUP BY fid
           ) per_user
       ), 0) AS top_score
FROM bets
WHERE gameweek = $1
  AND deleted_at IS NULL`

func (r *SettlementRepository) CollectGameweekStats(ctx context.Context, gw int) (gameweek.Stats, error) {
	var row struct {
		TotalBets    int `db:"total_bets"`
		TotalPlayers int `db:"total_players"`
		TopScore     int `db:"top_score"`
	}
	if err := r.db.GetContext(ctx, &row, gameweekStatsQuery, gw); err != nil {
		return gameweek.Stats{}, fmt.Errorf("collect gameweek stats gameweek=%d: %w", gw, err)
	}
	return gameweek.Stats{
		TotalBets:    row.TotalBets,
		TotalPlayers: row.TotalPlayers,
		TopScore:     row.TopScore,
	}, nil
}

const recomputeUserXPQuery = `
WITH user_points AS (
    SELECT fid, SUM(COALESCE(points_earned, 0)) AS total_points
    FROM bets
    WHERE deleted_at IS NULL
    GROUP BY fid
)
UPDATE users
SET xp = user_points.total_points,
    updated_at = NOW()
FROM user_points
WHERE users.fid = user_points.fid
  AND users.xp IS DISTINCT FROM user_points.total_points`

func (r *SettlementRepository) RecomputeAllUserXP(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, recomputeUserXPQuery)
	if err != nil {
		return 0, fmt.Errorf("recompute user xp: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recompute user xp rows affected: %w", err)
	}
	return affected, nil
}

const unsettledWinningBetsQuery = `
SELECT b.id, b.fid, b.match_id
FROM bets b
JOIN matches m ON m.id = b.match_id
WHERE m.is_finished = true
  AND m.result IS NOT NULL
  AND b.prediction = m.result
  AND COALESCE(b.points_earned, 0) = 0
  AND b.deleted_at IS NULL
  AND m.deleted_at IS NULL
ORDER BY b.id`

func (r *SettlementRepository) ListUnsettledWinningBets(ctx context.Context) ([]settlement.UnsettledBet, error) {
	var rows []struct {
		ID      int64 `db:"id"`
		FID     int64 `db:"fid"`
		MatchID int64 `db:"match_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, unsettledWinningBetsQuery); err != nil {
		return nil, fmt.Errorf("list unsettled winning bets: %w", err)
	}

	out := make([]settlement.UnsettledBet, 0, len(rows))
	for _, row := range rows {
		out = append(out, settlement.UnsettledBet{
			BetID:   row.ID,
			FID:     row.FID,
			MatchID: row.MatchID,
		})
	}
	return out, nil
}

const completableGameweeksQuery = `
SELECT g.gameweek_number
FROM gameweeks g
WHERE g.points_calculated = false
  AND g.end_date < NOW()
  AND g.deleted_at IS NULL
  AND NOT EXISTS (
      SELECT 1
      FROM matches m
      WHERE m.gameweek = g.gameweek_number
        AND (m.is_finished = false OR m.result IS NULL)
        AND m.deleted_at IS NULL
  )
ORDER BY g.gameweek_number`

func (r *SettlementRepository) ListCompletableGameweeks(ctx context.Context) ([]int, error) {
	var numbers []int
	if err := r.db.SelectContext(ctx, &numbers, completableGameweeksQuery); err != nil {
		return nil, fmt.Errorf("list completable gameweeks: %w", err)
	}
	return numbers, nil
}

const unprocessedWinningBetsCountQuery = `
SELECT COUNT(*)
FROM bets b
JOIN matches m ON m.id = b.match_id
WHERE b.gameweek = $1
  AND m.is_finished = true
  AND m.result IS NOT NULL
  AND b.prediction = m.result
  AND COALESCE(b.points_earned, 0) = 0
  AND b.deleted_at IS NULL
  AND m.deleted_at IS NULL`

func (r *SettlementRepository) CountUnprocessedWinningBets(ctx context.Context, gw int) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, unprocessedWinningBetsCountQuery, gw); err != nil {
		return 0, fmt.Errorf("count unprocessed winning bets gameweek=%d: %w", gw, err)
	}
	return count, nil
}

func (r *SettlementRepository) MarkGameweekCompleted(ctx context.Context, gw int) error {
	query, args, err := qb.Update("gameweeks").
		Set("points_calculated", true).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("gameweek_number", gw),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark gameweek completed query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark gameweek completed number=%d: %w", gw, err)
	}
	return nil
}
