package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/predict-league/internal/domain/user"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
)

const defaultLeaderboardLimit = 50

type UserService struct {
	userRepo user.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewUserService(userRepo user.Repository, logger *logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// GetOrCreate registers the user on first contact and refreshes display
// fields for returning users.
func (s *UserService) GetOrCreate(ctx context.Context, fid int64, username, pfpURL string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.GetOrCreate")
	defer span.End()

	if fid <= 0 {
		return user.User{}, fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}

	item, err := s.userRepo.GetOrCreate(ctx, fid, strings.TrimSpace(username), strings.TrimSpace(pfpURL))
	if err != nil {
		return user.User{}, fmt.Errorf("get or create user fid=%d: %w", fid, err)
	}
	return item, nil
}

// UpdateTitle equips one of the user's unlocked titles.
func (s *UserService) UpdateTitle(ctx context.Context, fid int64, title string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.UpdateTitle")
	defer span.End()

	title = strings.TrimSpace(title)
	if fid <= 0 {
		return fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if err := s.userRepo.UpdateTitle(ctx, fid, title); err != nil {
		if errors.Is(err, user.ErrTitleNotAvailable) {
			return fmt.Errorf("%w: title %q is not unlocked", ErrInvalidInput, title)
		}
		return fmt.Errorf("update title fid=%d: %w", fid, err)
	}

	s.logger.InfoContext(ctx, "user title updated", "fid", fid, "title", title)
	return nil
}

// Leaderboard returns the top users ordered by xp, ties broken by the
// number of gameweeks played.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Leaderboard")
	defer span.End()

	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	users, err := s.userRepo.ListLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return users, nil
}

// Stats returns the profile snapshot including the user's overall rank.
func (s *UserService) Stats(ctx context.Context, fid int64) (user.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Stats")
	defer span.End()

	if fid <= 0 {
		return user.Stats{}, fmt.Errorf("%w: fid is required", ErrInvalidInput)
	}

	stats, exists, err := s.userRepo.GetStats(ctx, fid)
	if err != nil {
		return user.Stats{}, fmt.Errorf("get user stats fid=%d: %w", fid, err)
	}
	if !exists {
		return user.Stats{}, fmt.Errorf("%w: user %d", ErrNotFound, fid)
	}
	return stats, nil
}
