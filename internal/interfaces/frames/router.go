// Package frames renders the interactive screen-and-button navigation
// surface. Every (screen, button) pair resolves through a routing table
// built once at startup; pairs outside the table land on the home screen.
package frames

import (
	"context"
	"fmt"

	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

type Screen string

const (
	ScreenHome        Screen = "home"
	ScreenMatches     Screen = "matches"
	ScreenMyBets      Screen = "my-bets"
	ScreenLeaderboard Screen = "leaderboard"
	ScreenProfile     Screen = "profile"
)

// Request is one button press on a frame.
type Request struct {
	FID      int64
	Username string
	PfpURL   string
	Screen   Screen
	Button   int
}

// Response is the next frame to render.
type Response struct {
	Screen  Screen   `json:"screen"`
	Title   string   `json:"title"`
	Lines   []string `json:"lines,omitempty"`
	Buttons []string `json:"buttons"`
}

type handlerFunc func(ctx context.Context, req Request) (Response, error)

type routeKey struct {
	screen Screen
	button int
}

const leaderboardSize = 10

type Router struct {
	betService  *usecase.BetService
	userService *usecase.UserService
	matchData   *usecase.MatchDataService
	logger      *logging.Logger
	table       map[routeKey]handlerFunc
}

func NewRouter(
	betService *usecase.BetService,
	userService *usecase.UserService,
	matchData *usecase.MatchDataService,
	logger *logging.Logger,
) *Router {
	if logger == nil {
		logger = logging.Default()
	}

	r := &Router{
		betService:  betService,
		userService: userService,
		matchData:   matchData,
		logger:      logger,
	}
	r.table = map[routeKey]handlerFunc{
		{ScreenHome, 1}: r.showMatches,
		{ScreenHome, 2}: r.showMyBets,
		{ScreenHome, 3}: r.showLeaderboard,
		{ScreenHome, 4}: r.showProfile,

		{ScreenMatches, 1}:     r.showHome,
		{ScreenMyBets, 1}:      r.showHome,
		{ScreenLeaderboard, 1}: r.showHome,
		{ScreenProfile, 1}:     r.showHome,
	}
	return r
}

// Route resolves one button press. The table is never modified after
// construction; unknown (screen, button) pairs fall back to home.
func (r *Router) Route(ctx context.Context, req Request) (Response, error) {
	if req.FID <= 0 {
		return Response{}, fmt.Errorf("%w: fid is required", usecase.ErrInvalidInput)
	}

	if _, err := r.userService.GetOrCreate(ctx, req.FID, req.Username, req.PfpURL); err != nil {
		r.logger.WarnContext(ctx, "frame user registration failed", "fid", req.FID, "error", err)
	}

	handler, ok := r.table[routeKey{req.Screen, req.Button}]
	if !ok {
		return r.showHome(ctx, req)
	}
	return handler(ctx, req)
}

func (r *Router) showHome(ctx context.Context, _ Request) (Response, error) {
	return Response{
		Screen:  ScreenHome,
		Title:   "Predict League",
		Lines:   []string{"Pick 1, X or 2 on this week's featured matches."},
		Buttons: []string{"Matches", "My Bets", "Leaderboard", "Profile"},
	}, nil
}

func (r *Router) showMatches(ctx context.Context, _ Request) (Response, error) {
	matches, err := r.matchData.GetMatches(ctx, usecase.GetMatchesInput{})
	if err != nil {
		return Response{}, fmt.Errorf("load matches frame: %w", err)
	}

	lines := make([]string, 0, len(matches))
	for _, item := range matches {
		line := fmt.Sprintf("%s vs %s · %s", item.HomeTeam, item.AwayTeam, item.KickoffAt.UTC().Format("Mon 15:04"))
		if item.IsFinished && item.HomeScore != nil && item.AwayScore != nil {
			line = fmt.Sprintf("%s %d-%d %s", item.HomeTeam, *item.HomeScore, *item.AwayScore, item.AwayTeam)
		}
		lines = append(lines, line)
	}

	return Response{
		Screen:  ScreenMatches,
		Title:   "This Gameweek",
		Lines:   lines,
		Buttons: []string{"Home"},
	}, nil
}

func (r *Router) showMyBets(ctx context.Context, req Request) (Response, error) {
	gw, err := r.matchData.CurrentGameweek(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("resolve current gameweek: %w", err)
	}
	bets, err := r.betService.ListUserBets(ctx, req.FID, gw)
	if err != nil {
		return Response{}, fmt.Errorf("load bets frame: %w", err)
	}

	lines := make([]string, 0, len(bets))
	for _, item := range bets {
		lines = append(lines, fmt.Sprintf("Match %d · predicted %s · %d pts", item.MatchID, item.Prediction, item.PointsEarned))
	}
	if len(lines) == 0 {
		lines = append(lines, "No bets placed this gameweek yet.")
	}

	return Response{
		Screen:  ScreenMyBets,
		Title:   fmt.Sprintf("My Bets · GW %d", gw),
		Lines:   lines,
		Buttons: []string{"Home"},
	}, nil
}

func (r *Router) showLeaderboard(ctx context.Context, _ Request) (Response, error) {
	users, err := r.userService.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return Response{}, fmt.Errorf("load leaderboard frame: %w", err)
	}

	lines := make([]string, 0, len(users))
	for i, item := range users {
		lines = append(lines, fmt.Sprintf("%d. %s · %d XP", i+1, item.Username, item.XP))
	}

	return Response{
		Screen:  ScreenLeaderboard,
		Title:   "Leaderboard",
		Lines:   lines,
		Buttons: []string{"Home"},
	}, nil
}

func (r *Router) showProfile(ctx context.Context, req Request) (Response, error) {
	stats, err := r.userService.Stats(ctx, req.FID)
	if err != nil {
		return Response{}, fmt.Errorf("load profile frame: %w", err)
	}

	return Response{
		Screen: ScreenProfile,
		Title:  stats.Username,
		Lines: []string{
			fmt.Sprintf("Title: %s", stats.Title),
			fmt.Sprintf("XP: %d · Level %d · Rank #%d", stats.XP, stats.Level, stats.Rank),
			fmt.Sprintf("Perfect scores: %d · Gameweeks played: %d", stats.PerfectScores, stats.GameweeksPlayed),
		},
		Buttons: []string{"Home"},
	}, nil
}
