// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/testutil"
)

func TestAdminRecomputeRankings(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	seedVotes(t, env, a, models.RoundDistrict, 2)

	w := httptest.NewRecorder()
	env.admin.RecomputeRankings(w, httptest.NewRequest("POST", "/admin/rankings", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var summary ranking.Summary
	testutil.AssertJSON(t, w, &summary)
	if summary.Contestants != 2 {
		t.Errorf("Expected 2 ranked contestants, got %d", summary.Contestants)
	}
}

func TestAdminSuspicious(t *testing.T) {
	env := newTestEnv(t)
	c1 := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})

	for i := 0; i < 12; i++ {
		testutil.InsertTestVote(t, env.db, testutil.TestVote{ContestantID: c1, IPHash: "net-a", UserAgent: "bot/1"})
	}
	for i := 0; i < 4; i++ {
		testutil.InsertTestVote(t, env.db, testutil.TestVote{ContestantID: c1, IPHash: "net-b", UserAgent: "bot/1"})
	}

	tests := []struct {
		name            string
		query           string
		expectedStatus  int
		expectedRecords int
		expectedKey     string
	}{
		{"defaults", "", http.StatusOK, 1, "net-a"},
		{"lower threshold", "?max=3", http.StatusOK, 2, "net-a"},
		{"minutes window", "?window=10&max=3", http.StatusOK, 2, "net-a"},
		{"by client", "?by=client", http.StatusOK, 1, "bot/1"},
		{"bad window", "?window=soon", http.StatusBadRequest, 0, ""},
		{"bad max", "?max=many", http.StatusBadRequest, 0, ""},
		{"bad origin", "?by=cookie", http.StatusBadRequest, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.admin.Suspicious(w, httptest.NewRequest("GET", "/admin/suspicious"+tt.query, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.SuspiciousVotesResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Records) != tt.expectedRecords {
				t.Fatalf("Expected %d records, got %d", tt.expectedRecords, len(resp.Records))
			}
			if resp.Records[0].OriginKey != tt.expectedKey {
				t.Errorf("Expected top origin %s, got %s", tt.expectedKey, resp.Records[0].OriginKey)
			}
		})
	}
}

func TestAdminRecount(t *testing.T) {
	env := newTestEnv(t)
	c1 := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	testutil.InsertTestVote(t, env.db, testutil.TestVote{ContestantID: c1})

	w := httptest.NewRecorder()
	env.admin.Recount(w, httptest.NewRequest("POST", "/admin/recount", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.RecountResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Checked != 1 || len(resp.Drifted) != 1 {
		t.Fatalf("Expected one drifted pair, got %+v", resp)
	}
	if resp.Drifted[0].Cached != 0 || resp.Drifted[0].Actual != 1 {
		t.Errorf("Unexpected divergence %+v", resp.Drifted[0])
	}

	// Second pass finds nothing
	w = httptest.NewRecorder()
	env.admin.Recount(w, httptest.NewRequest("POST", "/admin/recount", nil))
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Drifted) != 0 {
		t.Errorf("Expected no drift after recount, got %d", len(resp.Drifted))
	}
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	c1 := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	testutil.InsertTestVote(t, env.db, testutil.TestVote{VoterID: "U1", ContestantID: c1, CreatedAt: at})
	testutil.InsertTestVote(t, env.db, testutil.TestVote{VoterID: "U1", ContestantID: c1, Round: models.RoundProvince, CreatedAt: at})

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedTotal  int
	}{
		{"everything", "", http.StatusOK, 2},
		{"one round", "?round=PROVINCE", http.StatusOK, 1},
		{"time range", "?from=2025-03-01T00:00:00Z&to=2025-03-01T09:00:00Z", http.StatusOK, 0},
		{"bad round", "?round=x", http.StatusBadRequest, 0},
		{"bad from", "?from=yesterday", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.admin.Stats(w, httptest.NewRequest("GET", "/admin/stats"+tt.query, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var stats models.VoteStats
			testutil.AssertJSON(t, w, &stats)
			if stats.TotalVotes != tt.expectedTotal {
				t.Errorf("Expected %d votes, got %d", tt.expectedTotal, stats.TotalVotes)
			}
		})
	}
}

func TestAdminHourly(t *testing.T) {
	env := newTestEnv(t)
	c1 := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	testutil.InsertTestVote(t, env.db, testutil.TestVote{ContestantID: c1, CreatedAt: time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)})

	w := httptest.NewRecorder()
	env.admin.Hourly(w, httptest.NewRequest("GET", "/admin/stats/hourly?date=2025-03-01", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.HourlyVotesResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Date != "2025-03-01" {
		t.Errorf("Expected date 2025-03-01, got %s", resp.Date)
	}
	if len(resp.Hours) != 24 || resp.Hours["07"] != 1 {
		t.Errorf("Unexpected buckets %v", resp.Hours)
	}

	w = httptest.NewRecorder()
	env.admin.Hourly(w, httptest.NewRequest("GET", "/admin/stats/hourly?date=March", nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestAdminRefreshPhases(t *testing.T) {
	env := newTestEnv(t)
	testutil.SetPhase(t, env.db, models.RoundProvince, true, false)
	testutil.SetPhase(t, env.db, models.RoundDistrict, true, true)

	w := httptest.NewRecorder()
	env.admin.RefreshPhases(w, httptest.NewRequest("POST", "/admin/phases/refresh", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PhasesResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Phases) != 2 {
		t.Fatalf("Expected 2 phases, got %d", len(resp.Phases))
	}
	if resp.Phases[0].Round != models.RoundDistrict {
		t.Errorf("Expected phases in competition order, got %s first", resp.Phases[0].Round)
	}
}

func TestAdminPurgeContestant(t *testing.T) {
	env := newTestEnv(t)
	c1 := testutil.CreateTestContestant(t, env.db, testutil.ContestantSpec{})
	seedVotes(t, env, c1, models.RoundDistrict, 3)

	req := httptest.NewRequest("DELETE", "/admin/contestants/"+c1, nil)
	req.SetPathValue("id", c1)
	w := httptest.NewRecorder()
	env.admin.PurgeContestant(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PurgeResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.VotesRemoved != 3 {
		t.Errorf("Expected 3 votes removed, got %d", resp.VotesRemoved)
	}
	if n := testutil.CountVotes(t, env.db, c1, ""); n != 0 {
		t.Errorf("Expected no votes left, got %d", n)
	}

	// Second delete is a 404
	w = httptest.NewRecorder()
	env.admin.PurgeContestant(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
