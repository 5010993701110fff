package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	_ "github.com/lib/pq"

	"github.com/riskibarqy/predict-league/external/fpl"
	"github.com/riskibarqy/predict-league/external/telegram"
	"github.com/riskibarqy/predict-league/internal/config"
	"github.com/riskibarqy/predict-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/predict-league/internal/interfaces/frames"
	"github.com/riskibarqy/predict-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/predict-league/internal/platform/cache"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/platform/resilience"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

// Application bundles the wired service graph plus the handles main needs
// for lifecycle management.
type Application struct {
	Server     *http.Server
	Settlement *usecase.SettlementService
	DB         *sqlx.DB

	notifier *telegram.Notifier
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	userRepo := postgres.NewUserRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	betRepo := postgres.NewBetRepository(db)
	gameweekRepo := postgres.NewGameweekRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)
	jobDispatchRepo := postgres.NewJobDispatchRepository(db)

	fplClient := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    cfg.FPLBaseURL,
		Timeout:    cfg.FPLTimeout,
		MaxRetries: cfg.FPLMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	var notifier *telegram.Notifier
	var settlementNotifier usecase.Notifier
	if cfg.TelegramEnabled {
		notifier = telegram.NewNotifier(telegram.Config{
			BaseURL:  cfg.TelegramBaseURL,
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
			Timeout:  cfg.TelegramTimeout,
			Logger:   logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.TelegramCircuitEnabled,
				FailureThreshold: cfg.TelegramCircuitFailureCount,
				OpenTimeout:      cfg.TelegramCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.TelegramCircuitHalfOpenMaxReq,
			},
		})
		settlementNotifier = notifier
	}

	store := cache.NewStore(cfg.CacheTTL)
	matchDataService := usecase.NewMatchDataService(matchRepo, gameweekRepo, fplClient, store, usecase.MatchDataConfig{
		CacheTTL:     cfg.CacheTTL,
		DisableCache: !cfg.CacheEnabled,
	}, logger)
	betService := usecase.NewBetService(betRepo, userRepo, logger)
	userService := usecase.NewUserService(userRepo, logger)
	settlementService := usecase.NewSettlementService(
		matchRepo,
		settlementRepo,
		gameweekRepo,
		matchDataService,
		settlementNotifier,
		usecase.SettlementConfig{VisibilityWindow: cfg.SettlementVisibilityWindow},
		logger,
	)

	frameRouter := frames.NewRouter(betService, userService, matchDataService, logger)
	handler := httpapi.NewHandler(
		betService,
		userService,
		matchDataService,
		settlementService,
		frameRouter,
		jobDispatchRepo,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Application{
		Server:     server,
		Settlement: settlementService,
		DB:         db,
		notifier:   notifier,
	}, nil
}

// Close releases resources in reverse dependency order. Safe to call once
// the HTTP server has been shut down.
func (a *Application) Close(ctx context.Context) error {
	var firstErr error
	if a.notifier != nil {
		if err := a.notifier.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
