// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/db"
	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/router"
	"github.com/danielhkuo/star-vote/scheduler"
	"github.com/danielhkuo/star-vote/tally"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	policy, err := ranking.ParseTiePolicy(cfg.TiePolicy)
	if err != nil {
		slog.Error("invalid tie policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	m := metrics.NewManager(metrics.WithProcessMetrics())

	gate := phase.NewGate(dbConn, cfg.PhaseCacheTTL, m)
	counts := tally.NewCache(dbConn, m)
	l := ledger.New(dbConn, gate, counts, m)
	engine := ranking.NewEngine(dbConn, cfg.StandingsRound, policy, m)
	detector := fraud.NewDetector(dbConn)

	// Background jobs
	jobs := scheduler.New(m,
		scheduler.RankingsJob(engine, cfg.RankInterval),
		scheduler.FraudScanJob(detector, fraud.LogReporter{}, m, cfg.FraudInterval, cfg.FraudWindow, cfg.FraudThreshold),
		scheduler.ReconcileJob(counts, cfg.ReconcileInterval, cfg.ReconcileTolerance),
	)
	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		if err := jobs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scheduler stopped", "error", err)
		}
	}()

	// Create router
	mux := router.NewRouter(router.Deps{
		DB:       dbConn,
		Gate:     gate,
		Counts:   counts,
		Ledger:   l,
		Engine:   engine,
		Detector: detector,
		Metrics:  m,
	}, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(cfg.AllowedOrigins)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "standings_round", cfg.StandingsRound, "tie_policy", policy.String())
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	stop()
	<-jobsDone
}

// setupLogging installs the default slog handler for the configured format and level
func setupLogging(cfg cliparse.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
