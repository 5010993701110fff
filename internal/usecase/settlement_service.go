package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/predict-league/internal/domain/gameweek"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/settlement"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/platform/resilience"
)

// Notifier delivers operational notifications. Alert is for conditions that
// need a human; Notify is informational.
type Notifier interface {
	Notify(ctx context.Context, text string)
	Alert(ctx context.Context, text string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}
func (noopNotifier) Alert(context.Context, string)  {}

type SettlementConfig struct {
	// VisibilityWindow is how far before its first kickoff the next
	// gameweek becomes visible for betting.
	VisibilityWindow time.Duration
}

// SettlementService runs the periodic scoring pipeline. Each run walks five
// phases: settle finished matches, recompute user xp, verify no winning bet
// was left behind, complete finished gameweeks, initialize the next one.
// Every phase is idempotent, so overlapping or repeated runs converge on the
// same state.
type SettlementService struct {
	matchRepo    match.Repository
	repo         settlement.Repository
	gameweekRepo gameweek.Repository
	matchData    *MatchDataService
	notifier     Notifier
	logger       *logging.Logger
	now          func() time.Time
	flight       resilience.SingleFlight
	cfg          SettlementConfig
}

func NewSettlementService(
	matchRepo match.Repository,
	repo settlement.Repository,
	gameweekRepo gameweek.Repository,
	matchData *MatchDataService,
	notifier Notifier,
	cfg SettlementConfig,
	logger *logging.Logger,
) *SettlementService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.VisibilityWindow <= 0 {
		cfg.VisibilityWindow = 72 * time.Hour
	}

	return &SettlementService{
		matchRepo:    matchRepo,
		repo:         repo,
		gameweekRepo: gameweekRepo,
		matchData:    matchData,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// Run executes one settlement pass. Concurrent callers share a single
// in-flight run and receive its report.
func (s *SettlementService) Run(ctx context.Context) (settlement.RunReport, error) {
	value, err, shared := s.flight.Do("settlement-run", func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		s.logger.InfoContext(ctx, "joined in-flight settlement run")
	}
	if err != nil {
		return settlement.RunReport{}, err
	}
	report, ok := value.(settlement.RunReport)
	if !ok {
		return settlement.RunReport{}, fmt.Errorf("unexpected settlement run result type %T", value)
	}
	return report, nil
}

func (s *SettlementService) run(ctx context.Context) (settlement.RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Run")
	defer span.End()

	report := settlement.RunReport{StartedAt: s.now()}

	s.refreshLiveMatches(ctx)

	settledGameweeks, settleErr := s.settleMatches(ctx, &report)
	for gw := range settledGameweeks {
		s.matchData.InvalidateGameweek(ctx, gw)
	}
	if settleErr != nil {
		s.notifier.Alert(ctx, fmt.Sprintf("Settlement phase failed (settle matches): %v", settleErr))
		return report, settleErr
	}

	reconciled, err := s.repo.RecomputeAllUserXP(ctx)
	if err != nil {
		s.notifier.Alert(ctx, fmt.Sprintf("Settlement phase failed (xp recompute): %v", err))
		return report, fmt.Errorf("recompute user xp: %w", err)
	}
	report.UsersReconciled = reconciled

	s.verifyScoring(ctx)

	if err := s.completeGameweeks(ctx, &report); err != nil {
		s.notifier.Alert(ctx, fmt.Sprintf("Settlement phase failed (complete gameweeks): %v", err))
		return report, err
	}

	if err := s.initializeNextGameweek(ctx, &report); err != nil {
		s.notifier.Alert(ctx, fmt.Sprintf("Settlement phase failed (initialize next gameweek): %v", err))
		return report, err
	}

	s.logger.InfoContext(ctx, "settlement run finished",
		"settled_matches", len(report.SettledMatches),
		"perfect_scores", len(report.PerfectScoreFIDs),
		"users_reconciled", report.UsersReconciled,
		"completed_gameweeks", report.CompletedGameweeks,
		"initialized_gameweek", report.InitializedGW,
		"elapsed", s.now().Sub(report.StartedAt).String(),
	)
	if len(report.SettledMatches) > 0 || len(report.CompletedGameweeks) > 0 || report.InitializedGW > 0 {
		s.notifier.Notify(ctx, formatRunSummary(report))
	}
	return report, nil
}

// refreshLiveMatches pushes the provider's latest score and status onto the
// stored matches of every gameweek that still has unprocessed fixtures, so
// in-play matches render live scores between settlement passes. Failures are
// tolerated: result derivation reads provider state on its own.
func (s *SettlementService) refreshLiveMatches(ctx context.Context) {
	unprocessed, err := s.matchRepo.ListUnprocessed(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "list unprocessed matches for refresh failed", "error", err)
		return
	}

	seen := make(map[int]struct{})
	for _, item := range unprocessed {
		seen[item.Gameweek] = struct{}{}
	}
	for _, gw := range sortedGameweeksDesc(seen) {
		if _, err := s.matchData.RefreshStoredMatches(ctx, gw); err != nil {
			s.logger.WarnContext(ctx, "refresh stored matches failed", "gameweek", gw, "error", err)
		}
	}
}

// settleMatches derives final results for every unprocessed match whose
// fixture the provider reports as confirmed finished, and refreshes the
// per-gameweek aggregates for each gameweek that saw at least one result.
// Gameweeks are worked most recent first and each one is fully processed,
// stats and perfect scores included, before the next is touched, so a
// provider failure mid-run never strands a half-settled gameweek.
func (s *SettlementService) settleMatches(ctx context.Context, report *settlement.RunReport) (map[int]struct{}, error) {
	unprocessed, err := s.matchRepo.ListUnprocessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed matches: %w", err)
	}
	settled := make(map[int]struct{})
	if len(unprocessed) == 0 {
		return settled, nil
	}

	byGameweek := make(map[int][]match.Match)
	gameweeks := make(map[int]struct{})
	for _, item := range unprocessed {
		byGameweek[item.Gameweek] = append(byGameweek[item.Gameweek], item)
		gameweeks[item.Gameweek] = struct{}{}
	}

	for _, gw := range sortedGameweeksDesc(gameweeks) {
		states, err := s.matchData.FixtureStates(ctx, gw)
		if err != nil {
			return settled, fmt.Errorf("fetch fixture states gameweek=%d: %w", gw, err)
		}

		for _, item := range byGameweek[gw] {
			fixture, ok := states[item.ExternalID]
			if !ok {
				continue
			}
			state := match.FixtureState{
				Finished:            fixture.Finished,
				FinishedProvisional: fixture.FinishedProvisional,
				HomeScore:           fixture.HomeScore,
				AwayScore:           fixture.AwayScore,
			}
			result, ok := match.DeriveResult(state)
			if !ok {
				if state.Finished && state.FinishedProvisional {
					s.logger.ErrorContext(ctx, "finished fixture has no scores",
						"match_id", item.ID, "external_id", item.ExternalID, "gameweek", gw)
					s.notifier.Alert(ctx, fmt.Sprintf(
						"Fixture %d (gameweek %d) reported finished without scores, result withheld", item.ExternalID, gw))
				}
				continue
			}

			outcome, err := s.repo.ApplyMatchResult(ctx, item.ID, result)
			if err != nil {
				s.logger.ErrorContext(ctx, "apply match result failed",
					"match_id", item.ID, "gameweek", gw, "error", err)
				s.notifier.Alert(ctx, fmt.Sprintf(
					"Settling match %d (gameweek %d) failed: %v", item.ID, gw, err))
				continue
			}
			report.SettledMatches = append(report.SettledMatches, outcome)
			settled[gw] = struct{}{}
			s.logger.InfoContext(ctx, "match settled",
				"match_id", item.ID,
				"gameweek", gw,
				"result", outcome.Result,
				"total_bets", outcome.TotalBets,
				"awarded_bets", outcome.AwardedBets,
			)
		}

		if _, ok := settled[gw]; !ok {
			continue
		}

		stats, err := s.repo.CollectGameweekStats(ctx, gw)
		if err != nil {
			s.logger.WarnContext(ctx, "collect gameweek stats failed", "gameweek", gw, "error", err)
		} else if err := s.gameweekRepo.RaiseStats(ctx, gw, stats); err != nil {
			s.logger.WarnContext(ctx, "raise gameweek stats failed", "gameweek", gw, "error", err)
		}

		fids, err := s.repo.AwardPerfectScores(ctx, gw)
		if err != nil {
			s.logger.ErrorContext(ctx, "award perfect scores failed", "gameweek", gw, "error", err)
			continue
		}
		report.PerfectScoreFIDs = append(report.PerfectScoreFIDs, fids...)
	}
	return settled, nil
}

// verifyScoring cross-checks the award phase: a winning bet on a finished
// match must never be left at zero points. Finding one means scoring and
// storage disagree, which is alerted, not silently repaired.
func (s *SettlementService) verifyScoring(ctx context.Context) {
	unsettled, err := s.repo.ListUnsettledWinningBets(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list unsettled winning bets failed", "error", err)
		return
	}
	if len(unsettled) == 0 {
		return
	}

	fault := fmt.Errorf("%w: %d winning bet(s) without points", ErrReconciliationFault, len(unsettled))
	s.logger.ErrorContext(ctx, "winning bets left without points",
		"count", len(unsettled),
		"first_bet_id", unsettled[0].BetID,
		"error", fault,
	)
	s.notifier.Alert(ctx, fmt.Sprintf(
		"Reconciliation fault: %d winning bet(s) on finished matches still have zero points", len(unsettled)))
}

func (s *SettlementService) completeGameweeks(ctx context.Context, report *settlement.RunReport) error {
	numbers, err := s.repo.ListCompletableGameweeks(ctx)
	if err != nil {
		return fmt.Errorf("list completable gameweeks: %w", err)
	}

	for _, gw := range numbers {
		pending, err := s.repo.CountUnprocessedWinningBets(ctx, gw)
		if err != nil {
			s.logger.ErrorContext(ctx, "count unprocessed winning bets failed", "gameweek", gw, "error", err)
			continue
		}
		if pending > 0 {
			s.logger.WarnContext(ctx, "gameweek held open by unprocessed bets", "gameweek", gw, "pending", pending)
			continue
		}
		if err := s.repo.MarkGameweekCompleted(ctx, gw); err != nil {
			s.logger.ErrorContext(ctx, "mark gameweek completed failed", "gameweek", gw, "error", err)
			continue
		}
		report.CompletedGameweeks = append(report.CompletedGameweeks, gw)
		s.logger.InfoContext(ctx, "gameweek completed", "gameweek", gw)
	}
	return nil
}

// initializeNextGameweek creates the row for the gameweek after the latest
// completed one, but only inside the visibility window before its first
// kickoff so matches never show up weeks in advance.
func (s *SettlementService) initializeNextGameweek(ctx context.Context, report *settlement.RunReport) error {
	latest, exists, err := s.gameweekRepo.GetLatestCompleted(ctx)
	if err != nil {
		return fmt.Errorf("get latest completed gameweek: %w", err)
	}
	if !exists {
		return nil
	}

	next := latest.Number + 1
	if _, found, err := s.gameweekRepo.Get(ctx, next); err != nil {
		return fmt.Errorf("get gameweek number=%d: %w", next, err)
	} else if found {
		return nil
	}

	fixtures, err := s.matchData.gateway.FetchFixturesByGameweek(ctx, next)
	if err != nil {
		return fmt.Errorf("fetch fixtures gameweek=%d: %w", next, err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	first, last := fixtures[0].KickoffAt, fixtures[0].KickoffAt
	for _, fixture := range fixtures[1:] {
		if fixture.KickoffAt.Before(first) {
			first = fixture.KickoffAt
		}
		if fixture.KickoffAt.After(last) {
			last = fixture.KickoffAt
		}
	}

	now := s.now()
	if now.Before(first.Add(-s.cfg.VisibilityWindow)) {
		s.logger.DebugContext(ctx, "next gameweek outside visibility window",
			"gameweek", next, "first_kickoff", first)
		return nil
	}

	if err := s.gameweekRepo.Insert(ctx, gameweek.Gameweek{
		Number:    next,
		StartDate: first,
		EndDate:   gameweek.EndDateFor(last),
	}); err != nil {
		return fmt.Errorf("insert gameweek number=%d: %w", next, err)
	}
	if _, err := s.matchData.ImportGameweek(ctx, next); err != nil {
		return fmt.Errorf("import gameweek number=%d: %w", next, err)
	}
	s.matchData.WarmCache(ctx, []int{next})

	report.InitializedGW = next
	s.logger.InfoContext(ctx, "next gameweek initialized",
		"gameweek", next, "start_date", first, "end_date", gameweek.EndDateFor(last))
	return nil
}

func sortedGameweeksDesc(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for gw := range set {
		out = append(out, gw)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func formatRunSummary(report settlement.RunReport) string {
	summary := fmt.Sprintf("Settlement run: %d match(es) settled, %d perfect score(s), %d user(s) reconciled",
		len(report.SettledMatches), len(report.PerfectScoreFIDs), report.UsersReconciled)
	if len(report.CompletedGameweeks) > 0 {
		summary += fmt.Sprintf(", gameweek(s) %v completed", report.CompletedGameweeks)
	}
	if report.InitializedGW > 0 {
		summary += fmt.Sprintf(", gameweek %d opened", report.InitializedGW)
	}
	return summary
}
