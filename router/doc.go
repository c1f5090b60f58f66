// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Star Vote API.

# Route Registration

NewRouter creates a configured http.ServeMux from the shared components:

	mux := router.NewRouter(router.Deps{
		DB:       conn,
		Gate:     gate,
		Counts:   counts,
		Ledger:   l,
		Engine:   engine,
		Detector: detector,
		Metrics:  m,
	}, cfg)

The mux is not wrapped in CORS; main does that with middleware.CORS.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Voting (requires a session token, Bearer or "session" cookie):

	POST /votes    - Cast a vote
	GET  /votes/me - The caller's votes, optional ?round=
	GET  /votes/check - Whether the caller voted for ?contestant_id= in ?round=

Public:

	GET /votes/status     - Whether voting is open and the current round
	GET /results/status   - Whether final results are released
	GET /contestants/{id} - Contestant with ranks and vote counts
	GET /leaderboard      - Ranked standings (?scope=&id=&limit=)

Operator (requires X-Admin-Key):

	POST   /admin/rankings         - Recompute ranks now
	GET    /admin/suspicious       - Fraud scan (?window=&max=&by=)
	POST   /admin/recount          - Reconcile vote counts with the ledger
	GET    /admin/stats            - Vote statistics (?round=&from=&to=)
	GET    /admin/stats/hourly     - Hourly vote histogram (?date=)
	POST   /admin/phases/refresh   - Drop cached phase state
	DELETE /admin/contestants/{id} - Remove a contestant and its votes
*/
package router
