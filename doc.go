// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Star Vote API server.

Star Vote records one vote per voter, contestant and round for a staged
talent competition, keeps a cached vote count per contestant, and
periodically ranks contestants overall, per district and per province.

# Starting the Server

The server reads CLI flags, then environment variables (a local .env file
is loaded first if present), then an optional YAML config file:

	DATABASE_URL=file:star-vote.db SESSION_SECRET=... IP_HASH_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -config star-vote.yaml

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - SESSION_SECRET (--session-secret): HMAC secret for voter session tokens
  - IP_HASH_SALT (--ip-salt): salt for hashing client addresses

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ADMIN_KEY (--admin-key): enables the /admin endpoints
  - ALLOWED_ORIGINS (--origins): comma-separated CORS origins
  - STANDINGS_ROUND, TIE_POLICY: which round's counts rank contestants, and how ties share ranks
  - RANK_INTERVAL, FRAUD_INTERVAL, RECONCILE_INTERVAL: background job intervals, 0 disables
  - FRAUD_WINDOW, FRAUD_THRESHOLD: trailing window and per-origin vote limit for fraud scans
  - LOG_LEVEL, LOG_FORMAT: slog level and text or json output

# Architecture

  - ledger: vote casting and ledger queries
  - tally: cached vote counts and reconciliation
  - phase: cached competition phase state
  - ranking: tie policies and rank recomputation
  - fraud: per-origin vote-rate checks
  - scheduler: background jobs for the batch components
  - handlers, router, middleware: the HTTP surface
  - auth, cliparse, db, metrics, models: supporting packages

See package documentation for each component.
*/
package main
