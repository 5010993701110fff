package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/predict-league/internal/app"
	"github.com/riskibarqy/predict-league/internal/config"
	"github.com/riskibarqy/predict-league/internal/observability"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logger, closeLogSink, err := observability.InitBetterStackLogger(cfg, logger)
	if err != nil {
		logger.Error("init log sink", "error", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init profiler", "error", err)
		os.Exit(1)
	}

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	wg.Go(func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	})
	wg.Go(func() {
		runSettlementLoop(ctx, application, cfg.SettlementInterval, logger)
	})

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	wg.Wait()

	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("close app", "error", err)
	}
	if err := observability.StopPprofServer(pprofServer, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop profiler", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown tracing", "error", err)
	}
	if err := closeLogSink(shutdownCtx); err != nil {
		logger.Error("close log sink", "error", err)
	}

	logger.Info("http server stopped")
}

// runSettlementLoop runs one settlement pass immediately, then on every tick
// until the context is cancelled.
func runSettlementLoop(ctx context.Context, application *app.Application, interval time.Duration, logger *logging.Logger) {
	runOnce := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		report, err := application.Settlement.Run(runCtx)
		if err != nil {
			logger.ErrorContext(runCtx, "settlement run failed", "error", err)
			return
		}
		logger.InfoContext(runCtx, "settlement run finished",
			"matches_settled", len(report.SettledMatches),
			"gameweeks_completed", len(report.CompletedGameweeks),
		)
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
