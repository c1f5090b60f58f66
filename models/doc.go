// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CastVoteRequest: contestant_id, round (optional)

# Response Types

Types for JSON responses:

  - CastVoteResponse: success, reason, message, vote_count
  - VotingStatusResponse: voting_enabled, current_round, message
  - HasVotedResponse: contestant_id, round, has_voted
  - ResultsStatusResponse: results_released, message
  - ContestantResponse: contestant, votes, round_votes
  - LeaderboardResponse: scope, entries
  - VoterVotesResponse: votes (voter and origin fields never serialized)
  - SuspiciousVotesResponse: origin, window, threshold, records
  - HourlyVotesResponse: date, hours "00".."23"
  - PhasesResponse: phases
  - RecountResponse: checked, drifted
  - PurgeResponse: contestant_id, votes_removed
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Contestant: approval status, district/province and rank fields
  - CompetitionPhase: per-round activation and voting flags
  - Vote: one immutable ledger row
  - VoteCount: derived per (contestant, round) tally
  - SuspicionRecord: advisory fraud finding
  - VoteStats: admin aggregates

# Constants

Rounds, in competition order:

	RoundRegistration = "REGISTRATION"
	RoundDistrict     = "DISTRICT"
	RoundProvince     = "PROVINCE"
	RoundSemiFinal    = "SEMI_FINAL"
	RoundFinale       = "FINALE"
	RoundCompleted    = "COMPLETED"

Contestant status values (only APPROVED is votable):

	StatusPending, StatusApproved, StatusRejected,
	StatusDisqualified, StatusWithdrawn
*/
package models
