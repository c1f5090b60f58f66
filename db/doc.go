// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation, and driver error classification.

# Connections

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections get foreign keys and a busy timeout, and the pool is
capped at one connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is portable between PostgreSQL and SQLite.

# Tables

  - contestant: eligibility status, district/province, rank fields
  - competition_phase: one row per round (is_active, voting_enabled)
  - vote: the ledger, UNIQUE (voter_id, contestant_id, round)
  - vote_count: derived tally per (contestant_id, round)

# Relationships

	contestant 1──* vote
	contestant 1──* vote_count

Both foreign keys use ON DELETE CASCADE.

# Constraint Errors

Classify turns driver-specific constraint failures into sentinel errors:

	if db.IsUniqueViolation(err) {
		// the (voter, contestant, round) triple already exists
	}

PostgreSQL codes 23505/23503 and SQLite extended codes
SQLITE_CONSTRAINT_UNIQUE, SQLITE_CONSTRAINT_PRIMARYKEY and
SQLITE_CONSTRAINT_FOREIGNKEY are recognized.
*/
package db
