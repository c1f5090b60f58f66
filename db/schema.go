// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// statements strips "--" comment lines and splits the DDL on ';', so the
// same text runs on drivers that reject multi-statement Exec.
func statements(ddl string) []string {
	var b strings.Builder
	for _, line := range strings.Split(ddl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// DropSchema removes every table created by CreateSchema, children first.
func DropSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"vote_count", "vote", "competition_phase", "contestant"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

const schema = `
-- Contestants (approval workflow is external, ranks are written by the rank engine only)
CREATE TABLE IF NOT EXISTS contestant (
    id TEXT PRIMARY KEY,
    contestant_no TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'DISQUALIFIED', 'WITHDRAWN')),
    district_id TEXT NOT NULL,
    province_id TEXT NOT NULL,
    overall_rank INTEGER,
    district_rank INTEGER,
    province_rank INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contestant_status ON contestant(status);
CREATE INDEX IF NOT EXISTS idx_contestant_district ON contestant(district_id);
CREATE INDEX IF NOT EXISTS idx_contestant_province ON contestant(province_id);

-- Competition phases
CREATE TABLE IF NOT EXISTS competition_phase (
    round TEXT PRIMARY KEY CHECK (round IN ('REGISTRATION', 'DISTRICT', 'PROVINCE', 'SEMI_FINAL', 'FINALE', 'COMPLETED')),
    name TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    voting_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    start_date TIMESTAMP,
    end_date TIMESTAMP
);

-- Votes (one per voter per contestant per round, enforced here and nowhere else)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL,
    contestant_id TEXT NOT NULL REFERENCES contestant(id) ON DELETE CASCADE,
    round TEXT NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (voter_id, contestant_id, round)
);

CREATE INDEX IF NOT EXISTS idx_vote_contestant_round ON vote(contestant_id, round);
CREATE INDEX IF NOT EXISTS idx_vote_created_at ON vote(created_at);
CREATE INDEX IF NOT EXISTS idx_vote_voter ON vote(voter_id);

-- Vote counts (derived, rebuilt from vote by recount)
CREATE TABLE IF NOT EXISTS vote_count (
    contestant_id TEXT NOT NULL REFERENCES contestant(id) ON DELETE CASCADE,
    round TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (contestant_id, round)
);

CREATE INDEX IF NOT EXISTS idx_vote_count_round ON vote_count(round, count);
`
