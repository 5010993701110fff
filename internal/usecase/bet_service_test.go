package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/user"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
)

func TestBetService_PlaceBet_CreatesUserAndStoresBet(t *testing.T) {
	t.Parallel()

	betRepo := &stubBetRepository{}
	userRepo := &stubUserRepository{users: map[int64]user.User{}}
	service := NewBetService(betRepo, userRepo, logging.NewNop())

	placed, err := service.PlaceBet(context.Background(), PlaceBetInput{
		FID:        7001,
		Username:   "alice",
		MatchID:    2610_00101,
		Prediction: "1",
	})
	if err != nil {
		t.Fatalf("PlaceBet error: %v", err)
	}
	if placed.FID != 7001 || placed.MatchID != 2610_00101 || placed.Prediction != "1" {
		t.Fatalf("unexpected bet: %+v", placed)
	}
	if _, ok := userRepo.users[7001]; !ok {
		t.Fatalf("expected user created on first bet")
	}
}

func TestBetService_PlaceBet_RejectsInvalidPrediction(t *testing.T) {
	t.Parallel()

	service := NewBetService(&stubBetRepository{}, &stubUserRepository{users: map[int64]user.User{}}, logging.NewNop())

	_, err := service.PlaceBet(context.Background(), PlaceBetInput{
		FID:        7001,
		MatchID:    2610_00101,
		Prediction: "3",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBetService_PlaceBet_MapsClosedBetting(t *testing.T) {
	t.Parallel()

	betRepo := &stubBetRepository{placeErr: bet.ErrBettingClosed}
	service := NewBetService(betRepo, &stubUserRepository{users: map[int64]user.User{}}, logging.NewNop())

	_, err := service.PlaceBet(context.Background(), PlaceBetInput{
		FID:        7001,
		MatchID:    2610_00101,
		Prediction: "X",
	})
	if !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("expected ErrBettingClosed, got %v", err)
	}
}

func TestBetService_PlaceBet_MapsUnknownMatch(t *testing.T) {
	t.Parallel()

	betRepo := &stubBetRepository{placeErr: bet.ErrMatchNotFound}
	service := NewBetService(betRepo, &stubUserRepository{users: map[int64]user.User{}}, logging.NewNop())

	_, err := service.PlaceBet(context.Background(), PlaceBetInput{
		FID:        7001,
		MatchID:    999,
		Prediction: "2",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBetService_PreviousResults_DefaultsLimit(t *testing.T) {
	t.Parallel()

	betRepo := &stubBetRepository{
		summaries: []bet.GameweekSummary{{Gameweek: 9, MatchID: 2609_00101, Prediction: "1", Result: "1", WasCorrect: true}},
	}
	service := NewBetService(betRepo, &stubUserRepository{users: map[int64]user.User{}}, logging.NewNop())

	got, err := service.PreviousResults(context.Background(), 7001, 10, 0)
	if err != nil {
		t.Fatalf("PreviousResults error: %v", err)
	}
	if len(got) != 1 || !got[0].WasCorrect {
		t.Fatalf("unexpected summaries: %+v", got)
	}
	if betRepo.lastSummaryLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", betRepo.lastSummaryLimit)
	}
}

type stubBetRepository struct {
	placeErr         error
	placed           []bet.Bet
	byUserGameweek   map[int64]map[int][]bet.Bet
	summaries        []bet.GameweekSummary
	lastSummaryLimit int
}

func (s *stubBetRepository) Place(_ context.Context, b bet.Bet) (bet.Bet, error) {
	if s.placeErr != nil {
		return bet.Bet{}, s.placeErr
	}
	b.ID = int64(len(s.placed) + 1)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.placed = append(s.placed, b)
	return b, nil
}

func (s *stubBetRepository) ListByUserAndGameweek(_ context.Context, fid int64, gw int) ([]bet.Bet, error) {
	return s.byUserGameweek[fid][gw], nil
}

func (s *stubBetRepository) ListByMatch(_ context.Context, matchID int64) ([]bet.Bet, error) {
	var out []bet.Bet
	for _, item := range s.placed {
		if item.MatchID == matchID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubBetRepository) ListGameweekSummaries(_ context.Context, _ int64, _ int, limit int) ([]bet.GameweekSummary, error) {
	s.lastSummaryLimit = limit
	return s.summaries, nil
}
