package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/user"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
)

type PlaceBetInput struct {
	FID          int64
	Username     string
	PfpURL       string
	MatchID      int64
	Prediction   string
	DoubleChance bool
}

type BetService struct {
	betRepo  bet.Repository
	userRepo user.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewBetService(betRepo bet.Repository, userRepo user.Repository, logger *logging.Logger) *BetService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BetService{
		betRepo:  betRepo,
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// PlaceBet registers or updates the caller's prediction for one match. The
// user is created lazily on their first bet. Re-placing before the deadline
// overwrites the previous prediction.
func (s *BetService) PlaceBet(ctx context.Context, input PlaceBetInput) (bet.Bet, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BetService.PlaceBet")
	defer span.End()

	if input.FID <= 0 {
		return bet.Bet{}, fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}
	if input.MatchID <= 0 {
		return bet.Bet{}, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	if !match.IsValidResult(input.Prediction) {
		return bet.Bet{}, fmt.Errorf("%w: prediction must be 1, X or 2", ErrInvalidInput)
	}

	if _, err := s.userRepo.GetOrCreate(ctx, input.FID, input.Username, input.PfpURL); err != nil {
		return bet.Bet{}, fmt.Errorf("get or create user fid=%d: %w", input.FID, err)
	}

	placed, err := s.betRepo.Place(ctx, bet.Bet{
		FID:          input.FID,
		MatchID:      input.MatchID,
		Prediction:   input.Prediction,
		DoubleChance: input.DoubleChance,
	})
	if err != nil {
		switch {
		case errors.Is(err, bet.ErrMatchNotFound):
			return bet.Bet{}, fmt.Errorf("%w: match %d not found", ErrNotFound, input.MatchID)
		case errors.Is(err, bet.ErrBettingClosed):
			return bet.Bet{}, fmt.Errorf("%w: match %d", ErrBettingClosed, input.MatchID)
		default:
			return bet.Bet{}, fmt.Errorf("place bet fid=%d match_id=%d: %w", input.FID, input.MatchID, err)
		}
	}

	s.logger.InfoContext(ctx, "bet placed",
		"fid", input.FID,
		"match_id", input.MatchID,
		"prediction", input.Prediction,
	)
	return placed, nil
}

// ListUserBets returns the caller's bets for one gameweek.
func (s *BetService) ListUserBets(ctx context.Context, fid int64, gameweek int) ([]bet.Bet, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BetService.ListUserBets")
	defer span.End()

	if fid <= 0 {
		return nil, fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}
	if gameweek <= 0 {
		return nil, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}

	bets, err := s.betRepo.ListByUserAndGameweek(ctx, fid, gameweek)
	if err != nil {
		return nil, fmt.Errorf("list bets fid=%d gameweek=%d: %w", fid, gameweek, err)
	}
	return bets, nil
}

// PreviousResults returns the caller's settled bets from gameweeks before
// the given one, newest first, for the review screen.
func (s *BetService) PreviousResults(ctx context.Context, fid int64, beforeGameweek, limit int) ([]bet.GameweekSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BetService.PreviousResults")
	defer span.End()

	if fid <= 0 {
		return nil, fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}

	summaries, err := s.betRepo.ListGameweekSummaries(ctx, fid, beforeGameweek, limit)
	if err != nil {
		return nil, fmt.Errorf("list gameweek summaries fid=%d: %w", fid, err)
	}
	return summaries, nil
}
