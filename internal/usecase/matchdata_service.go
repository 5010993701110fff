package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/platform/cache"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
)

// FixtureGateway reads fixture and team data from the upstream provider.
type FixtureGateway interface {
	FetchBootstrap(ctx context.Context) (ExternalBootstrap, error)
	FetchFixturesByGameweek(ctx context.Context, gameweek int) ([]ExternalFixture, error)
}

type ExternalBootstrap struct {
	Teams  []ExternalTeam
	Events []ExternalEvent
}

type ExternalTeam struct {
	ExternalID int64
	Name       string
	ShortName  string
	Strength   int
}

type ExternalEvent struct {
	ID         int
	Name       string
	DeadlineAt time.Time
	Finished   bool
	IsCurrent  bool
	IsNext     bool
}

type ExternalFixture struct {
	ExternalID          int64
	Gameweek            int
	HomeTeamExternalID  int64
	AwayTeamExternalID  int64
	KickoffAt           time.Time
	Started             bool
	Minutes             int
	HomeScore           *int
	AwayScore           *int
	Finished            bool
	FinishedProvisional bool
}

// MatchesPerGameweek is how many fixtures are offered for betting each round.
const MatchesPerGameweek = 3

// bigTeams are preferred when picking the featured fixtures of a gameweek.
var bigTeams = map[string]struct{}{
	"Arsenal":   {},
	"Chelsea":   {},
	"Liverpool": {},
	"Man City":  {},
	"Man Utd":   {},
	"Spurs":     {},
}

type MatchDataConfig struct {
	CacheTTL    time.Duration
	WarmWorkers int
	// DisableCache reads through to storage on every call.
	DisableCache bool
}

type MatchDataService struct {
	matchRepo    match.Repository
	gameweekRepo gameweek.Repository
	gateway      FixtureGateway
	store        *cache.Store
	cfg          MatchDataConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewMatchDataService(
	matchRepo match.Repository,
	gameweekRepo gameweek.Repository,
	gateway FixtureGateway,
	store *cache.Store,
	cfg MatchDataConfig,
	logger *logging.Logger,
) *MatchDataService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.WarmWorkers <= 0 {
		cfg.WarmWorkers = 2
	}

	return &MatchDataService{
		matchRepo:    matchRepo,
		gameweekRepo: gameweekRepo,
		gateway:      gateway,
		store:        store,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

type GetMatchesInput struct {
	Gameweek int
	// BypassCache forces a read through to storage, used when fresh
	// deadlines matter more than latency.
	BypassCache bool
}

func (s *MatchDataService) GetMatches(ctx context.Context, input GetMatchesInput) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchDataService.GetMatches")
	defer span.End()

	gw := input.Gameweek
	if gw <= 0 {
		current, err := s.CurrentGameweek(ctx)
		if err != nil {
			return nil, err
		}
		gw = current
	}

	if input.BypassCache || s.cfg.DisableCache {
		return s.loadMatches(ctx, gw)
	}

	value, err := s.store.GetOrLoadTTL(ctx, matchCacheKey(gw), s.cfg.CacheTTL, func(ctx context.Context) (any, error) {
		return s.loadMatches(ctx, gw)
	})
	if err != nil {
		return nil, err
	}
	matches, ok := value.([]match.Match)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value type %T", value)
	}
	return matches, nil
}

func (s *MatchDataService) loadMatches(ctx context.Context, gw int) ([]match.Match, error) {
	stored, err := s.matchRepo.ListByGameweek(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("list matches gameweek=%d: %w", gw, err)
	}
	if len(stored) > 0 {
		return stored, nil
	}
	return s.ImportGameweek(ctx, gw)
}

// ImportGameweek pulls the gameweek's fixtures from the provider, picks the
// featured subset and persists it. Returns the stored matches.
func (s *MatchDataService) ImportGameweek(ctx context.Context, gw int) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchDataService.ImportGameweek")
	defer span.End()

	if gw <= 0 {
		return nil, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}

	fixtures, err := s.gateway.FetchFixturesByGameweek(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gw, err)
	}
	if len(fixtures) == 0 {
		return nil, nil
	}

	teams, err := s.teamNames(ctx)
	if err != nil {
		return nil, err
	}

	featured := selectFeaturedFixtures(fixtures, teams, MatchesPerGameweek)
	matches := make([]match.Match, 0, len(featured))
	for _, item := range featured {
		matches = append(matches, fixtureToMatch(item, teams))
	}

	if err := s.matchRepo.UpsertMatches(ctx, matches); err != nil {
		return nil, fmt.Errorf("upsert matches gameweek=%d: %w", gw, err)
	}

	s.logger.InfoContext(ctx, "imported gameweek fixtures",
		"gameweek", gw,
		"fixtures_available", len(fixtures),
		"matches_selected", len(matches),
	)
	return matches, nil
}

// RefreshStoredMatches re-reads provider state for matches already selected
// in the gameweek and persists score and status updates.
func (s *MatchDataService) RefreshStoredMatches(ctx context.Context, gw int) ([]match.Match, error) {
	stored, err := s.matchRepo.ListByGameweek(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("list matches gameweek=%d: %w", gw, err)
	}
	if len(stored) == 0 {
		return nil, nil
	}

	fixtures, err := s.gateway.FetchFixturesByGameweek(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gw, err)
	}
	byExternalID := make(map[int64]ExternalFixture, len(fixtures))
	for _, item := range fixtures {
		byExternalID[item.ExternalID] = item
	}

	updated := make([]match.Match, 0, len(stored))
	for _, item := range stored {
		fixture, ok := byExternalID[item.ExternalID]
		if !ok {
			updated = append(updated, item)
			continue
		}
		item.Started = fixture.Started
		item.Minutes = fixture.Minutes
		item.HomeScore = fixture.HomeScore
		item.AwayScore = fixture.AwayScore
		item.IsFinished = fixture.Finished
		if !fixture.KickoffAt.IsZero() {
			item.KickoffAt = fixture.KickoffAt
			item.Deadline = match.DeadlineFor(fixture.KickoffAt)
		}
		updated = append(updated, item)
	}

	if err := s.matchRepo.UpsertMatches(ctx, updated); err != nil {
		return nil, fmt.Errorf("upsert refreshed matches gameweek=%d: %w", gw, err)
	}
	s.store.Delete(ctx, matchCacheKey(gw))
	return updated, nil
}

// FixtureStates returns the provider's current view of a gameweek keyed by
// fixture id, used when deciding whether results are final.
func (s *MatchDataService) FixtureStates(ctx context.Context, gw int) (map[int64]ExternalFixture, error) {
	fixtures, err := s.gateway.FetchFixturesByGameweek(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gw, err)
	}
	out := make(map[int64]ExternalFixture, len(fixtures))
	for _, item := range fixtures {
		out[item.ExternalID] = item
	}
	return out, nil
}

func (s *MatchDataService) CurrentGameweek(ctx context.Context) (int, error) {
	current, exists, err := s.gameweekRepo.GetCurrent(ctx)
	if err != nil {
		return 0, fmt.Errorf("get current gameweek: %w", err)
	}
	if exists {
		return current.Number, nil
	}

	bootstrap, err := s.bootstrap(ctx)
	if err != nil {
		return 0, err
	}
	for _, event := range bootstrap.Events {
		if event.IsCurrent {
			return event.ID, nil
		}
	}
	for _, event := range bootstrap.Events {
		if event.IsNext {
			return event.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: no current gameweek", ErrNotFound)
}

// WarmCache preloads match lists for the given gameweeks on a small worker
// pool so the first user request after settlement does not pay the load.
func (s *MatchDataService) WarmCache(ctx context.Context, gameweeks []int) {
	if len(gameweeks) == 0 {
		return
	}

	pool, err := ants.NewPool(s.cfg.WarmWorkers)
	if err != nil {
		s.logger.WarnContext(ctx, "create cache warm pool failed", "error", err)
		return
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, gw := range gameweeks {
		gw := gw
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if _, err := s.GetMatches(ctx, GetMatchesInput{Gameweek: gw}); err != nil {
				s.logger.WarnContext(ctx, "warm match cache failed", "gameweek", gw, "error", err)
			}
		}); err != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "submit cache warm task failed", "gameweek", gw, "error", err)
		}
	}
	workers.Wait()
}

// InvalidateGameweek drops the cached match list after results change.
func (s *MatchDataService) InvalidateGameweek(ctx context.Context, gw int) {
	s.store.Delete(ctx, matchCacheKey(gw))
}

func (s *MatchDataService) bootstrap(ctx context.Context) (ExternalBootstrap, error) {
	value, err := s.store.GetOrLoadTTL(ctx, "fpl:bootstrap", s.cfg.CacheTTL, func(ctx context.Context) (any, error) {
		bootstrap, err := s.gateway.FetchBootstrap(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch bootstrap: %w", err)
		}
		return bootstrap, nil
	})
	if err != nil {
		return ExternalBootstrap{}, err
	}
	bootstrap, ok := value.(ExternalBootstrap)
	if !ok {
		return ExternalBootstrap{}, fmt.Errorf("unexpected cached value type %T", value)
	}
	return bootstrap, nil
}

func (s *MatchDataService) teamNames(ctx context.Context) (map[int64]ExternalTeam, error) {
	bootstrap, err := s.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]ExternalTeam, len(bootstrap.Teams))
	for _, team := range bootstrap.Teams {
		out[team.ExternalID] = team
	}
	return out, nil
}

func matchCacheKey(gw int) string {
	return fmt.Sprintf("matches:gw:%d", gw)
}

// selectFeaturedFixtures prefers fixtures involving well supported clubs,
// then fills the remainder with the earliest kickoffs.
func selectFeaturedFixtures(fixtures []ExternalFixture, teams map[int64]ExternalTeam, limit int) []ExternalFixture {
	sorted := append([]ExternalFixture(nil), fixtures...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].KickoffAt.Equal(sorted[j].KickoffAt) {
			return sorted[i].KickoffAt.Before(sorted[j].KickoffAt)
		}
		return sorted[i].ExternalID < sorted[j].ExternalID
	})

	selected := make([]ExternalFixture, 0, limit)
	taken := make(map[int64]struct{}, limit)
	for _, item := range sorted {
		if len(selected) >= limit {
			break
		}
		if involvesBigTeam(item, teams) {
			selected = append(selected, item)
			taken[item.ExternalID] = struct{}{}
		}
	}
	for _, item := range sorted {
		if len(selected) >= limit {
			break
		}
		if _, ok := taken[item.ExternalID]; ok {
			continue
		}
		selected = append(selected, item)
		taken[item.ExternalID] = struct{}{}
	}
	return selected
}

func involvesBigTeam(fixture ExternalFixture, teams map[int64]ExternalTeam) bool {
	if team, ok := teams[fixture.HomeTeamExternalID]; ok {
		if _, big := bigTeams[strings.TrimSpace(team.Name)]; big {
			return true
		}
	}
	if team, ok := teams[fixture.AwayTeamExternalID]; ok {
		if _, big := bigTeams[strings.TrimSpace(team.Name)]; big {
			return true
		}
	}
	return false
}

func fixtureToMatch(fixture ExternalFixture, teams map[int64]ExternalTeam) match.Match {
	out := match.Match{
		ID:         match.SyntheticID(fixture.KickoffAt.Year(), fixture.Gameweek, fixture.ExternalID),
		ExternalID: fixture.ExternalID,
		Gameweek:   fixture.Gameweek,
		HomeTeamID: fixture.HomeTeamExternalID,
		AwayTeamID: fixture.AwayTeamExternalID,
		KickoffAt:  fixture.KickoffAt,
		Deadline:   match.DeadlineFor(fixture.KickoffAt),
		Started:    fixture.Started,
		Minutes:    fixture.Minutes,
		HomeScore:  fixture.HomeScore,
		AwayScore:  fixture.AwayScore,
		IsFinished: fixture.Finished,
	}
	if team, ok := teams[fixture.HomeTeamExternalID]; ok {
		out.HomeTeam = team.Name
	}
	if team, ok := teams[fixture.AwayTeamExternalID]; ok {
		out.AwayTeam = team.Name
	}
	return out
}
