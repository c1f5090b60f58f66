// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Precedence

Each setting is resolved in this order, first one set wins. An explicit
0 for a numeric or duration setting counts as set, so -phase-ttl 0
disables the phase cache and -reconcile-interval 0 disables that job.


 1. CLI flag
 2. Environment variable
 3. YAML config file (-config or CONFIG_FILE), loaded with koanf
 4. Built-in default

# CLI Flags and Environment Variables

	-p                   PORT                 Server port (default: 3318)
	-d                   DATABASE_URL         Database URL (required)
	-t                   DATABASE_TYPE        sqlite or postgres (default: sqlite)
	-session-secret      SESSION_SECRET       Session token secret (required)
	-ip-salt             IP_HASH_SALT         IP hash salt (required)
	-admin-key           ADMIN_KEY            Admin API key (empty disables /admin)
	-origins             ALLOWED_ORIGINS      Comma-separated CORS origins
	-log-level           LOG_LEVEL            debug, info, warn, error
	-log-format          LOG_FORMAT           text or json
	-standings-round     STANDINGS_ROUND      Round ranked by the rank engine (default: DISTRICT)
	-tie-policy          TIE_POLICY           sequential, dense, competition
	-phase-ttl           PHASE_CACHE_TTL      Phase gate cache TTL (default: 5s)
	-rank-interval       RANK_INTERVAL        Rank recompute interval (default: 5m)
	-fraud-interval      FRAUD_INTERVAL       Fraud scan interval (default: 1m)
	-fraud-window        FRAUD_WINDOW         Fraud scan window (default: 5m)
	-fraud-threshold     FRAUD_THRESHOLD      Votes per origin per window (default: 10)
	-reconcile-interval  RECONCILE_INTERVAL   Vote count reconcile interval (default: 15m)
	-reconcile-tolerance RECONCILE_TOLERANCE  Allowed drift before forced recount (default: 0)
	-trusted-proxies     TRUSTED_PROXIES      Proxies trusted for X-Forwarded-For (default: 0)

# Config File

Keys match the koanf struct tags:

	port: 3318
	database_type: postgres
	tie_policy: sequential
	rank_interval: 5m
	fraud_threshold: 10
	allowed_origins:
	  - https://star.tuko.lk

Secrets may live in the file for development but prefer the environment.
*/
package cliparse
