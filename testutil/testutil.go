// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/star-vote/auth"
	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/db"
	"github.com/danielhkuo/star-vote/models"
)

const (
	TestSessionSecret = "test-session-secret"
	TestAdminKey      = "test-admin-key"
	TestIPHashSalt    = "test-ip-salt"
)

var contestantSeq atomic.Int64

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The file lives in t.TempDir and is removed with it.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "star-vote-test.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        "file::memory:",
		DatabaseType:       db.TypeSQLite,
		SessionSecret:      TestSessionSecret,
		AdminKey:           TestAdminKey,
		IPHashSalt:         TestIPHashSalt,
		StandingsRound:     models.RoundDistrict,
		TiePolicy:          cliparse.DefaultTiePolicy,
		PhaseCacheTTL:      0,
		RankInterval:       time.Minute,
		FraudInterval:      time.Minute,
		FraudWindow:        5 * time.Minute,
		FraudThreshold:     10,
		ReconcileInterval:  time.Minute,
		ReconcileTolerance: 0,
	}
}

// ContestantSpec describes a contestant row for CreateTestContestant.
// Zero values fall back to an approved contestant in colombo/western.
type ContestantSpec struct {
	ID         string
	Status     string
	DistrictID string
	ProvinceID string
}

// CreateTestContestant inserts a contestant and returns its ID
func CreateTestContestant(t *testing.T, conn *sql.DB, spec ContestantSpec) string {
	t.Helper()

	if spec.ID == "" {
		spec.ID, _ = auth.GenerateID(8)
	}
	if spec.Status == "" {
		spec.Status = models.StatusApproved
	}
	if spec.DistrictID == "" {
		spec.DistrictID = "colombo"
	}
	if spec.ProvinceID == "" {
		spec.ProvinceID = "western"
	}

	no := fmt.Sprintf("STAR-%05d", contestantSeq.Add(1))
	_, err := conn.Exec(`
		INSERT INTO contestant (id, contestant_no, first_name, last_name, status, district_id, province_id, created_at)
		VALUES ($1, $2, 'Test', $3, $4, $5, $6, $7)
	`, spec.ID, no, spec.ID, spec.Status, spec.DistrictID, spec.ProvinceID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test contestant: %v", err)
	}

	return spec.ID
}

// SetPhase creates or replaces the competition_phase row for round
func SetPhase(t *testing.T, conn *sql.DB, round models.Round, active, votingEnabled bool) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO competition_phase (round, name, is_active, voting_enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round) DO UPDATE SET is_active = excluded.is_active, voting_enabled = excluded.voting_enabled
	`, string(round), string(round)+" round", active, votingEnabled)
	if err != nil {
		t.Fatalf("Failed to set phase: %v", err)
	}
}

// TestVote is a ledger row written directly by InsertTestVote
type TestVote struct {
	VoterID      string
	ContestantID string
	Round        models.Round
	IPHash       string
	UserAgent    string
	CreatedAt    time.Time
}

// InsertTestVote writes a vote row without going through the ledger.
// It does not touch vote_count, which makes it handy for drift tests.
func InsertTestVote(t *testing.T, conn *sql.DB, v TestVote) {
	t.Helper()

	if v.VoterID == "" {
		v.VoterID = uuid.NewString()
	}
	if v.Round == "" {
		v.Round = models.RoundDistrict
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	var ipHash, userAgent *string
	if v.IPHash != "" {
		ipHash = &v.IPHash
	}
	if v.UserAgent != "" {
		userAgent = &v.UserAgent
	}

	_, err := conn.Exec(`
		INSERT INTO vote (id, voter_id, contestant_id, round, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), v.VoterID, v.ContestantID, string(v.Round), ipHash, userAgent, v.CreatedAt.UTC())
	if err != nil {
		t.Fatalf("Failed to insert test vote: %v", err)
	}
}

// CountVotes returns the number of ledger rows for a contestant in a round.
// An empty round counts every round.
func CountVotes(t *testing.T, conn *sql.DB, contestantID string, round models.Round) int {
	t.Helper()

	var n int
	var err error
	if round == "" {
		err = conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE contestant_id = $1`, contestantID).Scan(&n)
	} else {
		err = conn.QueryRow(`
			SELECT COUNT(*) FROM vote WHERE contestant_id = $1 AND round = $2
		`, contestantID, string(round)).Scan(&n)
	}
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// SessionToken issues a session token for voterID signed with TestSessionSecret
func SessionToken(t *testing.T, voterID string) string {
	t.Helper()

	token, err := auth.IssueSession(voterID, TestSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
