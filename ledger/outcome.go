// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "net/http"

// Outcome is the result class of a CastVote call.
type Outcome int

const (
	Accepted Outcome = iota
	AlreadyVoted
	VotingClosed
	ContestantIneligible
	ValidationError
	StorageError
)

// String returns the reason code sent to clients
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case AlreadyVoted:
		return "already_voted"
	case VotingClosed:
		return "voting_closed"
	case ContestantIneligible:
		return "contestant_ineligible"
	case ValidationError:
		return "validation_error"
	case StorageError:
		return "storage_error"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the outcome onto a response status code
func (o Outcome) HTTPStatus() int {
	switch o {
	case Accepted:
		return http.StatusOK
	case AlreadyVoted:
		return http.StatusConflict
	case VotingClosed, ContestantIneligible, ValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the same ballot may succeed if sent again.
// Only infrastructure failures qualify; the others are final.
func (o Outcome) Retryable() bool {
	return o == StorageError
}

// Message returns the voter-facing text for the outcome
func (o Outcome) Message() string {
	return messages[o]
}

// Messages shown to voters, keyed by outcome
var messages = map[Outcome]string{
	Accepted:             "Vote cast successfully!",
	AlreadyVoted:         "You have already voted for this contestant in this round",
	VotingClosed:         "Voting is not currently open for this round",
	ContestantIneligible: "Contestant not found or not eligible for voting",
	StorageError:         "An error occurred while casting your vote",
}
