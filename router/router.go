// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/handlers"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
)

// Deps holds the shared components the handlers are built from.
// Metrics may be nil, in which case /metrics is not registered.
type Deps struct {
	DB       *sql.DB
	Gate     *phase.Gate
	Counts   *tally.Cache
	Ledger   *ledger.Ledger
	Engine   *ranking.Engine
	Detector *fraud.Detector
	Metrics  *metrics.Manager
}

func NewRouter(d Deps, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(d.Ledger, d.Gate, cfg)
	contestantHandler := handlers.NewContestantHandler(d.DB, d.Counts, d.Engine, cfg)
	adminHandler := handlers.NewAdminHandler(d.Ledger, d.Gate, d.Counts, d.Engine, d.Detector, cfg)

	session := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireSession(cfg.SessionSecret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Voting (requires a voter session)
	mux.HandleFunc("POST /votes", session(votingHandler.CastVote))
	mux.HandleFunc("GET /votes/me", session(votingHandler.MyVotes))
	mux.HandleFunc("GET /votes/check", session(votingHandler.Check))
	mux.HandleFunc("GET /votes/status", middleware.WithLogging(votingHandler.Status))
	mux.HandleFunc("GET /results/status", middleware.WithLogging(votingHandler.ResultsStatus))

	// Standings (public)
	mux.HandleFunc("GET /contestants/{id}", middleware.WithLogging(contestantHandler.GetContestant))
	mux.HandleFunc("GET /leaderboard", middleware.WithLogging(contestantHandler.Leaderboard))

	// Operator endpoints (require X-Admin-Key)
	mux.HandleFunc("POST /admin/rankings", admin(adminHandler.RecomputeRankings))
	mux.HandleFunc("GET /admin/suspicious", admin(adminHandler.Suspicious))
	mux.HandleFunc("POST /admin/recount", admin(adminHandler.Recount))
	mux.HandleFunc("GET /admin/stats", admin(adminHandler.Stats))
	mux.HandleFunc("GET /admin/stats/hourly", admin(adminHandler.Hourly))
	mux.HandleFunc("POST /admin/phases/refresh", admin(adminHandler.RefreshPhases))
	mux.HandleFunc("DELETE /admin/contestants/{id}", admin(adminHandler.PurgeContestant))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("star-vote API v1"))
	})

	return mux
}
