package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/predict-league/internal/domain/bet"
	"github.com/riskibarqy/predict-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/predict-league/internal/domain/match"
	"github.com/riskibarqy/predict-league/internal/domain/user"
	"github.com/riskibarqy/predict-league/internal/interfaces/frames"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

type Handler struct {
	betService        *usecase.BetService
	userService       *usecase.UserService
	matchDataService  *usecase.MatchDataService
	settlementService *usecase.SettlementService
	frameRouter       *frames.Router
	jobDispatchRepo   jobscheduler.Repository
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	betService *usecase.BetService,
	userService *usecase.UserService,
	matchDataService *usecase.MatchDataService,
	settlementService *usecase.SettlementService,
	frameRouter *frames.Router,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		betService:        betService,
		userService:       userService,
		matchDataService:  matchDataService,
		settlementService: settlementService,
		frameRouter:       frameRouter,
		jobDispatchRepo:   jobDispatchRepo,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func pathFID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("fid"))
	fid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || fid <= 0 {
		return 0, fmt.Errorf("%w: fid must be a positive integer", usecase.ErrInvalidInput)
	}
	return fid, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}

type placeBetRequest struct {
	FID          int64  `json:"fid" validate:"required,gt=0"`
	Username     string `json:"username" validate:"omitempty,max=100"`
	PfpURL       string `json:"pfp_url" validate:"omitempty,max=500"`
	MatchID      int64  `json:"match_id" validate:"required,gt=0"`
	Prediction   string `json:"prediction" validate:"required,oneof=1 X 2"`
	DoubleChance bool   `json:"double_chance"`
}

type updateTitleRequest struct {
	Title string `json:"title" validate:"required,max=60"`
}

type frameActionRequest struct {
	FID      int64  `json:"fid" validate:"required,gt=0"`
	Username string `json:"username" validate:"omitempty,max=100"`
	PfpURL   string `json:"pfp_url" validate:"omitempty,max=500"`
	Screen   string `json:"screen" validate:"omitempty,max=30"`
	Button   int    `json:"button" validate:"gte=0,lte=10"`
}

type internalSettlementJobRequest struct {
	Gameweek   int    `json:"gameweek"`
	DispatchID string `json:"dispatch_id"`
}

type matchDTO struct {
	ID         int64  `json:"id"`
	Gameweek   int    `json:"gameweek"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	KickoffAt  string `json:"kickoffAt"`
	Deadline   string `json:"deadline"`
	Started    bool   `json:"started"`
	Minutes    int    `json:"minutes"`
	HomeScore  *int   `json:"homeScore,omitempty"`
	AwayScore  *int   `json:"awayScore,omitempty"`
	IsFinished bool   `json:"isFinished"`
	Result     string `json:"result,omitempty"`
}

type betDTO struct {
	ID           int64  `json:"id"`
	FID          int64  `json:"fid"`
	MatchID      int64  `json:"matchId"`
	Gameweek     int    `json:"gameweek"`
	Prediction   string `json:"prediction"`
	DoubleChance bool   `json:"doubleChance"`
	PointsEarned int    `json:"pointsEarned"`
	UpdatedAt    string `json:"updatedAt"`
}

type betSummaryDTO struct {
	Gameweek   int    `json:"gameweek"`
	MatchID    int64  `json:"matchId"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	Prediction string `json:"prediction"`
	Result     string `json:"result"`
	WasCorrect bool   `json:"wasCorrect"`
}

type userDTO struct {
	FID             int64    `json:"fid"`
	Username        string   `json:"username"`
	PfpURL          string   `json:"pfpUrl,omitempty"`
	Title           string   `json:"title"`
	AvailableTitles []string `json:"availableTitles"`
	XP              int      `json:"xp"`
	Level           int      `json:"level"`
	GameweeksPlayed int      `json:"gameweeksPlayed"`
	PerfectScores   int      `json:"perfectScores"`
	LastPlayed      string   `json:"lastPlayed,omitempty"`
}

type userStatsDTO struct {
	userDTO
	Rank int `json:"rank"`
}

type settlementReportDTO struct {
	StartedAt          string  `json:"startedAt"`
	SettledMatches     int     `json:"settledMatches"`
	PerfectScoreFIDs   []int64 `json:"perfectScoreFids,omitempty"`
	UsersReconciled    int64   `json:"usersReconciled"`
	CompletedGameweeks []int   `json:"completedGameweeks,omitempty"`
	InitializedGW      int     `json:"initializedGameweek,omitempty"`
}

func matchToDTO(v match.Match) matchDTO {
	dto := matchDTO{
		ID:         v.ID,
		Gameweek:   v.Gameweek,
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		KickoffAt:  v.KickoffAt.UTC().Format(time.RFC3339),
		Deadline:   v.Deadline.UTC().Format(time.RFC3339),
		Started:    v.Started,
		Minutes:    v.Minutes,
		HomeScore:  v.HomeScore,
		AwayScore:  v.AwayScore,
		IsFinished: v.IsFinished,
	}
	if v.Result != nil {
		dto.Result = string(*v.Result)
	}
	return dto
}

func betToDTO(v bet.Bet) betDTO {
	return betDTO{
		ID:           v.ID,
		FID:          v.FID,
		MatchID:      v.MatchID,
		Gameweek:     v.Gameweek,
		Prediction:   v.Prediction,
		DoubleChance: v.DoubleChance,
		PointsEarned: v.PointsEarned,
		UpdatedAt:    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func betSummaryToDTO(v bet.GameweekSummary) betSummaryDTO {
	return betSummaryDTO{
		Gameweek:   v.Gameweek,
		MatchID:    v.MatchID,
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		Prediction: v.Prediction,
		Result:     v.Result,
		WasCorrect: v.WasCorrect,
	}
}

func userToDTO(v user.User) userDTO {
	dto := userDTO{
		FID:             v.FID,
		Username:        v.Username,
		PfpURL:          v.PfpURL,
		Title:           v.Title,
		AvailableTitles: append([]string(nil), v.AvailableTitles...),
		XP:              v.XP,
		Level:           v.Level,
		GameweeksPlayed: v.GameweeksPlayed,
		PerfectScores:   v.PerfectScores,
	}
	if v.LastPlayed != nil && !v.LastPlayed.IsZero() {
		dto.LastPlayed = v.LastPlayed.UTC().Format(time.RFC3339)
	}
	return dto
}

func userStatsToDTO(v user.Stats) userStatsDTO {
	return userStatsDTO{
		userDTO: userToDTO(v.User),
		Rank:    v.Rank,
	}
}
