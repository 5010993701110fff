package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/user"
)

// These tests exercise the scoring SQL against a real database. Set
// TEST_DATABASE_URL to a postgres DSN with the migrations applied to run
// them; they skip otherwise.

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func cleanupScoringRows(t *testing.T, db *sqlx.DB, gw int, fids []int64) {
	t.Helper()

	clean := func() {
		_, _ = db.Exec(`DELETE FROM perfect_score_awards WHERE gameweek = $1`, gw)
		_, _ = db.Exec(`DELETE FROM bets WHERE gameweek = $1`, gw)
		_, _ = db.Exec(`DELETE FROM matches WHERE gameweek = $1`, gw)
		_, _ = db.Exec(`DELETE FROM users WHERE fid = ANY($1)`, pq.Int64Array(fids))
	}
	clean()
	t.Cleanup(clean)
}

func seedUser(t *testing.T, db *sqlx.DB, fid int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (fid, username) VALUES ($1, $2)`, fid, "tester")
	if err != nil {
		t.Fatalf("seed user fid=%d: %v", fid, err)
	}
}

func seedMatch(t *testing.T, db *sqlx.DB, id int64, gw int, kickoff time.Time) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO matches (id, external_id, gameweek, kickoff_time, deadline) VALUES ($1, $2, $3, $4, $5)`,
		id, id%100000, gw, kickoff, match.DeadlineFor(kickoff),
	)
	if err != nil {
		t.Fatalf("seed match id=%d: %v", id, err)
	}
}

func seedBet(t *testing.T, db *sqlx.DB, fid, matchID int64, gw int, prediction string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO bets (fid, match_id, gameweek, prediction) VALUES ($1, $2, $3, $4)`,
		fid, matchID, gw, prediction,
	)
	if err != nil {
		t.Fatalf("seed bet fid=%d match_id=%d: %v", fid, matchID, err)
	}
}

func betPoints(t *testing.T, db *sqlx.DB, fid, matchID int64) int {
	t.Helper()
	var points int
	err := db.Get(&points, `SELECT points_earned FROM bets WHERE fid = $1 AND match_id = $2`, fid, matchID)
	if err != nil {
		t.Fatalf("read bet points fid=%d match_id=%d: %v", fid, matchID, err)
	}
	return points
}

func TestBetRepository_Place_DeadlineBoundary(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const gw = 911
	const fid int64 = 91103
	const matchID int64 = 91911010
	kickoff := time.Date(2026, 9, 12, 15, 0, 0, 0, time.UTC)
	deadline := match.DeadlineFor(kickoff)

	cleanupScoringRows(t, db, gw, []int64{fid})
	seedUser(t, db, fid)
	seedMatch(t, db, matchID, gw, kickoff)

	repo := NewBetRepository(db)

	repo.now = func() time.Time { return deadline }
	if _, err := repo.Place(ctx, bet.Bet{FID: fid, MatchID: matchID, Prediction: "1"}); !errors.Is(err, bet.ErrBettingClosed) {
		t.Fatalf("expected ErrBettingClosed at the exact deadline instant, got %v", err)
	}

	repo.now = func() time.Time { return deadline.Add(-time.Second) }
	placed, err := repo.Place(ctx, bet.Bet{FID: fid, MatchID: matchID, Prediction: "1"})
	if err != nil {
		t.Fatalf("Place one second before the deadline: %v", err)
	}
	if placed.Gameweek != gw {
		t.Fatalf("unexpected placed gameweek: got=%d want=%d", placed.Gameweek, gw)
	}
}

func TestSettlementRepository_ScoringRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const gw = 910
	alice, bob := int64(91001), int64(91002)
	matchIDs := []int64{91910001, 91910002, 91910003}
	kickoff := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC)

	cleanupScoringRows(t, db, gw, []int64{alice, bob})
	seedUser(t, db, alice)
	seedUser(t, db, bob)
	for i, id := range matchIDs {
		seedMatch(t, db, id, gw, kickoff.Add(time.Duration(i)*2*time.Hour))
	}

	// Alice calls all three, Bob misses the last one.
	for i, prediction := range []string{"1", "X", "1"} {
		seedBet(t, db, alice, matchIDs[i], gw, prediction)
	}
	for i, prediction := range []string{"1", "X", "2"} {
		seedBet(t, db, bob, matchIDs[i], gw, prediction)
	}

	repo := NewSettlementRepository(db)
	for i, result := range []match.Result{match.ResultHomeWin, match.ResultDraw, match.ResultHomeWin} {
		if _, err := repo.ApplyMatchResult(ctx, matchIDs[i], result); err != nil {
			t.Fatalf("ApplyMatchResult match_id=%d: %v", matchIDs[i], err)
		}
	}

	if got := betPoints(t, db, bob, matchIDs[0]) + betPoints(t, db, bob, matchIDs[1]) + betPoints(t, db, bob, matchIDs[2]); got != 2 {
		t.Fatalf("two of three correct must earn 2 points, got %d", got)
	}

	// Replaying a settled match must not award again.
	outcome, err := repo.ApplyMatchResult(ctx, matchIDs[0], match.ResultHomeWin)
	if err != nil {
		t.Fatalf("replay ApplyMatchResult: %v", err)
	}
	if outcome.AwardedBets != 0 {
		t.Fatalf("replay must award nothing, got %d", outcome.AwardedBets)
	}

	fids, err := repo.AwardPerfectScores(ctx, gw)
	if err != nil {
		t.Fatalf("AwardPerfectScores: %v", err)
	}
	if len(fids) != 1 || fids[0] != alice {
		t.Fatalf("only a 3-of-3 gameweek earns a perfect score, got %v", fids)
	}

	again, err := repo.AwardPerfectScores(ctx, gw)
	if err != nil {
		t.Fatalf("second AwardPerfectScores: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("perfect score must be credited once, got %v", again)
	}

	var perfectScore int
	if err := db.Get(&perfectScore, `SELECT perfect_score FROM users WHERE fid = $1`, alice); err != nil {
		t.Fatalf("read perfect_score: %v", err)
	}
	if perfectScore != 1 {
		t.Fatalf("expected perfect_score=1, got %d", perfectScore)
	}

	if _, err := repo.RecomputeAllUserXP(ctx); err != nil {
		t.Fatalf("RecomputeAllUserXP: %v", err)
	}
	var aliceXP, bobXP int
	if err := db.Get(&aliceXP, `SELECT xp FROM users WHERE fid = $1`, alice); err != nil {
		t.Fatalf("read alice xp: %v", err)
	}
	if err := db.Get(&bobXP, `SELECT xp FROM users WHERE fid = $1`, bob); err != nil {
		t.Fatalf("read bob xp: %v", err)
	}
	if aliceXP != 3 || bobXP != 2 {
		t.Fatalf("xp must equal the sum of earned points, got alice=%d bob=%d", aliceXP, bobXP)
	}
}

func TestUserRepository_GetOrCreate_SeedsStarterTitles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const fid int64 = 91104
	clean := func() { _, _ = db.Exec(`DELETE FROM users WHERE fid = $1`, fid) }
	clean()
	t.Cleanup(clean)

	repo := NewUserRepository(db)
	created, err := repo.GetOrCreate(ctx, fid, "tester", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created.Title != user.StarterTitle {
		t.Fatalf("expected starter title %q, got %q", user.StarterTitle, created.Title)
	}
	if !created.HasTitle(user.TitleNewPlayer) || !created.HasTitle(user.TitleBetaTester) {
		t.Fatalf("expected both starter titles unlocked, got %v", created.AvailableTitles)
	}
}
