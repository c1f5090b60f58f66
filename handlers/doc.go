// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Star Vote API.

# Handler Types

Each handler is a struct holding the components it calls and the config:

  - VotingHandler: casting votes, voting status, a voter's own votes
  - ContestantHandler: public contestant profile and leaderboards
  - AdminHandler: rankings, fraud review, recounts, stats, purges

	votingHandler := handlers.NewVotingHandler(ledger, gate, cfg)

# Voting

	POST /votes        → CastVote (session required)
	GET  /votes/status → Status
	GET  /votes/me     → MyVotes (session required)
	GET  /votes/check  → Check (session required)
	GET  /results/status → ResultsStatus

CastVote answers with the ledger outcome as a reason code and the
matching status: 200 accepted, 409 already_voted, 400 voting_closed,
contestant_ineligible or validation_error, 500 storage_error. When the
body names no round, the first open round is used, then DISTRICT.

The voter id comes from the session token checked by
middleware.RequireSession. The client IP is hashed with the configured
salt before it is stored.

# Public Reads

	GET /contestants/{id} → GetContestant (approved contestants only)
	GET /leaderboard      → Leaderboard (?scope=overall|district|province&id=&limit=)

Both read the vote_count table and the stored rank fields. Neither
touches the vote ledger.

# Admin

Admin routes require the X-Admin-Key header:

	POST   /admin/rankings         → RecomputeRankings
	GET    /admin/suspicious       → Suspicious (?window=5m&max=10&by=network|client)
	POST   /admin/recount          → Recount
	GET    /admin/stats            → Stats (?round=&from=&to=)
	GET    /admin/stats/hourly     → Hourly (?date=YYYY-MM-DD)
	POST   /admin/phases/refresh   → RefreshPhases
	DELETE /admin/contestants/{id} → PurgeContestant
*/
package handlers
