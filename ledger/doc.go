// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the write path for votes.

# Casting a vote

CastVote runs these checks in order and stops at the first failure:

 1. Validate the ballot: voter and contestant ids non-empty after trimming,
    at most MaxIDLength bytes each, and a known round (ValidationError).
 2. Ask the phase gate whether the round is open (VotingClosed).
 3. Look up the contestant and require status APPROVED (ContestantIneligible).
 4. Insert the vote row in a transaction. The database rejects a second vote
    for the same (voter, contestant, round) with a unique violation, which
    becomes AlreadyVoted. There is no separate existence query, so two
    concurrent identical ballots can never both be accepted.
 5. Recount the contestant's vote_count row in the same transaction and
    commit (Accepted, with the fresh count).

Anything else is a StorageError. Its Result carries an opaque message and the
returned error carries the detail for the logs. StorageError is the only
retryable outcome; CastVote never retries on its own.

# Outcomes

	Outcome                Reason code              HTTP
	Accepted               accepted                 200
	AlreadyVoted           already_voted            409
	VotingClosed           voting_closed            400
	ContestantIneligible   contestant_ineligible    400
	ValidationError        validation_error         400
	StorageError           storage_error            500

# Reads and maintenance

HasVoted, VotesByVoter, Stats and HourlyVotes read the ledger directly.
PurgeContestant removes a contestant, its votes and its vote counts in one
transaction; it is the hook called when an application is deleted.

Network origins are stored as salted hashes (see auth.HashIP). Voter ids and
origin metadata are never serialized to clients.
*/
package ledger
