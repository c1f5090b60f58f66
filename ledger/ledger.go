// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/star-vote/db"
	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/tally"
)

// MaxIDLength bounds voter and contestant identifiers, in bytes
const MaxIDLength = 128

var ErrContestantNotFound = errors.New("contestant not found")

// Origin is the request metadata stored with a vote for fraud review
type Origin struct {
	IPHash    string
	UserAgent string
}

// Ballot is one request to cast a vote
type Ballot struct {
	VoterID      string
	ContestantID string
	Round        models.Round
	Origin       Origin
}

// Result describes what CastVote did with a ballot
type Result struct {
	Outcome Outcome
	VoteID  string // set when Accepted
	Count   int    // fresh vote count when Accepted
	Message string
}

func result(o Outcome) Result {
	return Result{Outcome: o, Message: messages[o]}
}

// Ledger is the write path for votes. The UNIQUE (voter_id, contestant_id, round)
// constraint on the vote table is the only duplicate check.
type Ledger struct {
	db      *sql.DB
	gate    *phase.Gate
	counts  *tally.Cache
	metrics *metrics.Manager
	now     func() time.Time
}

func New(db *sql.DB, gate *phase.Gate, counts *tally.Cache, m *metrics.Manager) *Ledger {
	return &Ledger{
		db:      db,
		gate:    gate,
		counts:  counts,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CastVote records b if the round is open and the contestant is approved.
// The returned error is non-nil only for StorageError results.
func (l *Ledger) CastVote(ctx context.Context, b Ballot) (Result, error) {
	start := time.Now()
	res, err := l.castVote(ctx, b)
	l.metrics.RecordVote(res.Outcome.String(), string(b.Round), time.Since(start))

	switch res.Outcome {
	case Accepted:
		slog.Info("vote cast",
			"vote_id", res.VoteID,
			"contestant_id", b.ContestantID,
			"round", b.Round,
			"count", res.Count,
		)
	case StorageError:
		slog.Error("failed to cast vote",
			"error", err,
			"contestant_id", b.ContestantID,
			"round", b.Round,
		)
	default:
		slog.Debug("vote rejected",
			"reason", res.Outcome.String(),
			"contestant_id", b.ContestantID,
			"round", b.Round,
		)
	}
	return res, err
}

func (l *Ledger) castVote(ctx context.Context, b Ballot) (Result, error) {
	b.VoterID = strings.TrimSpace(b.VoterID)
	b.ContestantID = strings.TrimSpace(b.ContestantID)

	if msg := validate(b); msg != "" {
		res := result(ValidationError)
		res.Message = msg
		return res, nil
	}

	open, err := l.gate.IsVotingOpen(ctx, b.Round)
	if err != nil {
		return result(StorageError), err
	}
	if !open {
		return result(VotingClosed), nil
	}

	var status string
	err = l.db.QueryRowContext(ctx, `
		SELECT status FROM contestant WHERE id = $1
	`, b.ContestantID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return result(ContestantIneligible), nil
	}
	if err != nil {
		return result(StorageError), fmt.Errorf("failed to query contestant: %w", err)
	}
	if status != models.StatusApproved {
		return result(ContestantIneligible), nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return result(StorageError), fmt.Errorf("failed to begin vote: %w", err)
	}
	defer tx.Rollback()

	voteID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, voter_id, contestant_id, round, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, voteID, b.VoterID, b.ContestantID, string(b.Round),
		nullable(b.Origin.IPHash), nullable(b.Origin.UserAgent), l.now())

	if err != nil {
		err = db.Classify(err)
		switch {
		case errors.Is(err, db.ErrUniqueViolation):
			return result(AlreadyVoted), nil
		case errors.Is(err, db.ErrForeignKeyViolation):
			// Contestant was deleted after the status check
			return result(ContestantIneligible), nil
		}
		return result(StorageError), fmt.Errorf("failed to insert vote: %w", err)
	}

	count, err := l.counts.RefreshCountTx(ctx, tx, b.ContestantID, b.Round)
	if err != nil {
		return result(StorageError), err
	}

	if err := tx.Commit(); err != nil {
		err = db.Classify(err)
		if errors.Is(err, db.ErrUniqueViolation) {
			return result(AlreadyVoted), nil
		}
		return result(StorageError), fmt.Errorf("failed to commit vote: %w", err)
	}

	res := result(Accepted)
	res.VoteID = voteID
	res.Count = count
	return res, nil
}

func validate(b Ballot) string {
	switch {
	case b.VoterID == "":
		return "voter id is required"
	case b.ContestantID == "":
		return "contestant_id is required"
	case len(b.VoterID) > MaxIDLength:
		return fmt.Sprintf("voter id must be at most %d bytes", MaxIDLength)
	case len(b.ContestantID) > MaxIDLength:
		return fmt.Sprintf("contestant_id must be at most %d bytes", MaxIDLength)
	case !b.Round.Valid():
		return fmt.Sprintf("unknown round %q", b.Round)
	}
	return ""
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
