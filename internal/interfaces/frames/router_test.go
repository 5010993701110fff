package frames

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/user"
	"github.com/riskibarqy/predict-league/internal/platform/cache"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

func newTestRouter(t *testing.T) (*Router, *fakeUserRepo) {
	t.Helper()

	userRepo := &fakeUserRepo{users: map[int64]user.User{}}
	betRepo := &fakeBetRepo{}
	matchRepo := &fakeMatchRepo{
		byGameweek: map[int][]match.Match{
			10: {{ID: 2610_00101, Gameweek: 10, HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffAt: time.Date(2026, 8, 22, 14, 0, 0, 0, time.UTC)}},
		},
	}
	gwRepo := &fakeGameweekRepo{current: gameweek.Gameweek{Number: 10}}

	matchData := usecase.NewMatchDataService(matchRepo, gwRepo, fakeGateway{}, cache.NewStore(time.Minute), usecase.MatchDataConfig{}, logging.NewNop())
	betService := usecase.NewBetService(betRepo, userRepo, logging.NewNop())
	userService := usecase.NewUserService(userRepo, logging.NewNop())

	return NewRouter(betService, userService, matchData, logging.NewNop()), userRepo
}

func TestRouter_Route_FallsBackToHome(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	got, err := router.Route(context.Background(), Request{FID: 7001, Screen: "unknown-screen", Button: 9})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if got.Screen != ScreenHome {
		t.Fatalf("expected home fallback, got %q", got.Screen)
	}
	if len(got.Buttons) != 4 {
		t.Fatalf("expected 4 home buttons, got %v", got.Buttons)
	}
}

func TestRouter_Route_NavigatesFromHome(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	cases := []struct {
		button int
		screen Screen
	}{
		{1, ScreenMatches},
		{2, ScreenMyBets},
		{3, ScreenLeaderboard},
		{4, ScreenProfile},
	}
	for _, tc := range cases {
		got, err := router.Route(context.Background(), Request{FID: 7001, Screen: ScreenHome, Button: tc.button})
		if err != nil {
			t.Fatalf("Route home button %d error: %v", tc.button, err)
		}
		if got.Screen != tc.screen {
			t.Fatalf("home button %d: expected %q, got %q", tc.button, tc.screen, got.Screen)
		}
	}
}

func TestRouter_Route_RegistersUserLazily(t *testing.T) {
	t.Parallel()

	router, userRepo := newTestRouter(t)

	if _, err := router.Route(context.Background(), Request{FID: 7001, Username: "alice"}); err != nil {
		t.Fatalf("Route error: %v", err)
	}
	created, ok := userRepo.users[7001]
	if !ok {
		t.Fatalf("expected user created on first frame interaction")
	}
	if created.Title != user.TitleNewPlayer {
		t.Fatalf("expected default title, got %q", created.Title)
	}
}

func TestRouter_Route_TableIsNotMutated(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	keysBefore := make(map[routeKey]bool, len(router.table))
	for key := range router.table {
		keysBefore[key] = true
	}

	requests := []Request{
		{FID: 7001, Screen: ScreenHome, Button: 1},
		{FID: 7001, Screen: "bogus", Button: 7},
		{FID: 7001, Screen: ScreenLeaderboard, Button: 1},
		{FID: 7001, Screen: ScreenProfile, Button: 99},
	}
	for _, req := range requests {
		if _, err := router.Route(context.Background(), req); err != nil {
			t.Fatalf("Route %+v error: %v", req, err)
		}
	}

	if len(router.table) != len(keysBefore) {
		t.Fatalf("routing table size changed: %d != %d", len(router.table), len(keysBefore))
	}
	for key := range router.table {
		if !keysBefore[key] {
			t.Fatalf("routing table gained key %+v", key)
		}
	}
}

type fakeUserRepo struct {
	users map[int64]user.User
}

func (f *fakeUserRepo) GetByFID(_ context.Context, fid int64) (user.User, bool, error) {
	item, ok := f.users[fid]
	return item, ok, nil
}

func (f *fakeUserRepo) GetOrCreate(_ context.Context, fid int64, username, pfpURL string) (user.User, error) {
	if item, ok := f.users[fid]; ok {
		return item, nil
	}
	item := user.User{
		FID:             fid,
		Username:        username,
		PfpURL:          pfpURL,
		Title:           user.TitleNewPlayer,
		AvailableTitles: []string{user.TitleNewPlayer},
		Level:           1,
	}
	f.users[fid] = item
	return item, nil
}

func (f *fakeUserRepo) UpdateTitle(_ context.Context, fid int64, title string) error {
	item := f.users[fid]
	item.Title = title
	f.users[fid] = item
	return nil
}

func (f *fakeUserRepo) ListLeaderboard(_ context.Context, _ int) ([]user.User, error) {
	out := make([]user.User, 0, len(f.users))
	for _, item := range f.users {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeUserRepo) GetStats(_ context.Context, fid int64) (user.Stats, bool, error) {
	item, ok := f.users[fid]
	if !ok {
		return user.Stats{}, false, nil
	}
	return user.Stats{User: item, Rank: 1}, true, nil
}

type fakeBetRepo struct {
	bets []bet.Bet
}

func (f *fakeBetRepo) Place(_ context.Context, b bet.Bet) (bet.Bet, error) {
	f.bets = append(f.bets, b)
	return b, nil
}

func (f *fakeBetRepo) ListByUserAndGameweek(_ context.Context, fid int64, gw int) ([]bet.Bet, error) {
	var out []bet.Bet
	for _, item := range f.bets {
		if item.FID == fid && item.Gameweek == gw {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeBetRepo) ListByMatch(context.Context, int64) ([]bet.Bet, error) {
	return nil, nil
}

func (f *fakeBetRepo) ListGameweekSummaries(context.Context, int64, int, int) ([]bet.GameweekSummary, error) {
	return nil, nil
}

type fakeMatchRepo struct {
	byGameweek map[int][]match.Match
}

func (f *fakeMatchRepo) GetByID(context.Context, int64) (match.Match, bool, error) {
	return match.Match{}, false, nil
}

func (f *fakeMatchRepo) ListByGameweek(_ context.Context, gw int) ([]match.Match, error) {
	return f.byGameweek[gw], nil
}

func (f *fakeMatchRepo) ListUnprocessed(context.Context) ([]match.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) UpsertMatches(context.Context, []match.Match) error {
	return nil
}

type fakeGameweekRepo struct {
	current gameweek.Gameweek
}

func (f *fakeGameweekRepo) Get(_ context.Context, number int) (gameweek.Gameweek, bool, error) {
	if number == f.current.Number {
		return f.current, true, nil
	}
	return gameweek.Gameweek{}, false, nil
}

func (f *fakeGameweekRepo) GetCurrent(context.Context) (gameweek.Gameweek, bool, error) {
	return f.current, f.current.Number > 0, nil
}

func (f *fakeGameweekRepo) GetLatestCompleted(context.Context) (gameweek.Gameweek, bool, error) {
	return gameweek.Gameweek{}, false, nil
}

func (f *fakeGameweekRepo) Insert(context.Context, gameweek.Gameweek) error {
	return nil
}

func (f *fakeGameweekRepo) RaiseStats(context.Context, int, gameweek.Stats) error {
	return nil
}

type fakeGateway struct{}

func (fakeGateway) FetchBootstrap(context.Context) (usecase.ExternalBootstrap, error) {
	return usecase.ExternalBootstrap{}, nil
}

func (fakeGateway) FetchFixturesByGameweek(context.Context, int) ([]usecase.ExternalFixture, error) {
	return nil, nil
}
