// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
	"github.com/danielhkuo/star-vote/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *sql.DB, cliparse.Config) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	m := metrics.NewManager()

	gate := phase.NewGate(db, cfg.PhaseCacheTTL, m)
	counts := tally.NewCache(db, m)
	deps := Deps{
		DB:       db,
		Gate:     gate,
		Counts:   counts,
		Ledger:   ledger.New(db, gate, counts, m),
		Engine:   ranking.NewEngine(db, cfg.StandingsRound, ranking.Sequential, m),
		Detector: fraud.NewDetector(db),
		Metrics:  m,
	}

	return NewRouter(deps, cfg), db, cfg
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "star-vote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	// Only the exact root path is served
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/"},

		{"POST", "/votes"},
		{"GET", "/votes/me"},
		{"GET", "/votes/status"},
		{"GET", "/votes/check"},
		{"GET", "/results/status"},

		{"GET", "/contestants/test-id"},
		{"GET", "/leaderboard"},

		{"POST", "/admin/rankings"},
		{"GET", "/admin/suspicious"},
		{"POST", "/admin/recount"},
		{"GET", "/admin/stats"},
		{"GET", "/admin/stats/hourly"},
		{"POST", "/admin/phases/refresh"},
		{"DELETE", "/admin/contestants/test-id"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},                // Only GET is defined
		{"GET", "/votes"},                  // Only POST is defined
		{"GET", "/admin/rankings"},         // Only POST is defined
		{"PUT", "/admin/contestants/x-id"}, // Only DELETE is defined
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestVotingRequiresSession(t *testing.T) {
	mux, db, _ := newTestRouter(t)
	testutil.SetPhase(t, db, models.RoundDistrict, true, true)
	c1 := testutil.CreateTestContestant(t, db, testutil.ContestantSpec{})
	body := models.CastVoteRequest{ContestantID: c1}

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"garbage token", map[string]string{"Authorization": "Bearer not-a-jwt"}, http.StatusUnauthorized},
		{"valid token", map[string]string{"Authorization": "Bearer " + testutil.SessionToken(t, "U1")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/votes", body, tt.headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	if n := testutil.CountVotes(t, db, c1, models.RoundDistrict); n != 1 {
		t.Errorf("Expected 1 vote, got %d", n)
	}
}

func TestSessionCookieIdentifiesVoter(t *testing.T) {
	mux, db, _ := newTestRouter(t)
	testutil.SetPhase(t, db, models.RoundDistrict, true, true)
	c1 := testutil.CreateTestContestant(t, db, testutil.ContestantSpec{})
	token := testutil.SessionToken(t, "U1")

	// First vote with a bearer token, second with the cookie: same voter
	req := testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{ContestantID: c1}, map[string]string{
		"Authorization": "Bearer " + token,
	})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{ContestantID: c1}, nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)

	req = httptest.NewRequest("GET", "/votes/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VoterVotesResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Votes) != 1 || resp.Votes[0].ContestantID != c1 {
		t.Errorf("Expected one vote for %s, got %+v", c1, resp.Votes)
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	mux, _, cfg := newTestRouter(t)

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "wrong-key", http.StatusUnauthorized},
		{"valid key", cfg.AdminKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers["X-Admin-Key"] = tt.key
			}
			req := testutil.MakeRequest("POST", "/admin/rankings", nil, headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux, db, _ := newTestRouter(t)
	testutil.SetPhase(t, db, models.RoundDistrict, true, true)
	c1 := testutil.CreateTestContestant(t, db, testutil.ContestantSpec{})

	req := testutil.MakeRequest("POST", "/votes", models.CastVoteRequest{ContestantID: c1}, map[string]string{
		"Authorization": "Bearer " + testutil.SessionToken(t, "U1"),
	})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	if !strings.Contains(w.Body.String(), "starvote_ledger_votes_cast_total") {
		t.Errorf("Expected vote counter in metrics output, got:\n%s", w.Body.String())
	}
}
