// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
	"github.com/danielhkuo/star-vote/testutil"
)

type testEnv struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Ledger
	counts *tally.Cache
	engine *ranking.Engine

	voting      *VotingHandler
	contestants *ContestantHandler
	admin       *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	gate := phase.NewGate(db, cfg.PhaseCacheTTL, nil)
	counts := tally.NewCache(db, nil)
	l := ledger.New(db, gate, counts, nil)
	engine := ranking.NewEngine(db, cfg.StandingsRound, ranking.Sequential, nil)
	detector := fraud.NewDetector(db)

	return &testEnv{
		db:          db,
		cfg:         cfg,
		ledger:      l,
		counts:      counts,
		engine:      engine,
		voting:      NewVotingHandler(l, gate, cfg),
		contestants: NewContestantHandler(db, counts, engine, cfg),
		admin:       NewAdminHandler(l, gate, counts, engine, detector, cfg),
	}
}

// asVoter attaches a voter id the way RequireSession does
func asVoter(r *http.Request, voterID string) *http.Request {
	return r.WithContext(middleware.WithVoterID(r.Context(), voterID))
}
