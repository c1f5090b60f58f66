// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/star-vote/models"
)

// HasVoted reports whether voterID already has a vote for contestantID in round
func (l *Ledger) HasVoted(ctx context.Context, voterID, contestantID string, round models.Round) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM vote
			WHERE voter_id = $1 AND contestant_id = $2 AND round = $3
		)
	`, voterID, contestantID, string(round)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return exists, nil
}

// VotesByVoter lists a voter's votes, newest first. An empty round lists all rounds.
func (l *Ledger) VotesByVoter(ctx context.Context, voterID string, round models.Round) ([]models.Vote, error) {
	query := `
		SELECT id, voter_id, contestant_id, round, created_at
		FROM vote
		WHERE voter_id = $1`
	args := []any{voterID}
	if round != "" {
		query += ` AND round = $2`
		args = append(args, string(round))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.VoterID, &v.ContestantID, &v.Round, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

// StatsFilter narrows Stats. Zero fields match everything.
type StatsFilter struct {
	Round models.Round
	From  time.Time
	To    time.Time
}

// where builds a WHERE clause over the vote table aliased as v
func (f StatsFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Round != "" {
		add("v.round = $%d", string(f.Round))
	}
	if !f.From.IsZero() {
		add("v.created_at >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("v.created_at <= $%d", f.To.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Stats aggregates the ledger for the admin dashboard
func (l *Ledger) Stats(ctx context.Context, f StatsFilter) (models.VoteStats, error) {
	where, args := f.where()
	stats := models.VoteStats{
		VotesByRound:    make(map[models.Round]int),
		VotesByDistrict: make(map[string]int),
	}

	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT v.voter_id) FROM vote v`+where, args...,
	).Scan(&stats.TotalVotes, &stats.UniqueVoters)
	if err != nil {
		return stats, fmt.Errorf("failed to count votes: %w", err)
	}

	err = l.groupInto(ctx, `
		SELECT v.round, COUNT(*) FROM vote v`+where+` GROUP BY v.round`, args,
		func(key string, n int) { stats.VotesByRound[models.Round(key)] = n })
	if err != nil {
		return stats, fmt.Errorf("failed to group votes by round: %w", err)
	}

	err = l.groupInto(ctx, `
		SELECT c.district_id, COUNT(*)
		FROM vote v JOIN contestant c ON c.id = v.contestant_id`+where+`
		GROUP BY c.district_id`, args,
		func(key string, n int) { stats.VotesByDistrict[key] = n })
	if err != nil {
		return stats, fmt.Errorf("failed to group votes by district: %w", err)
	}

	return stats, nil
}

func (l *Ledger) groupInto(ctx context.Context, query string, args []any, set func(string, int)) error {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		set(key, n)
	}
	return rows.Err()
}

// HourlyVotes buckets the votes of one UTC day by hour, "00" through "23".
func (l *Ledger) HourlyVotes(ctx context.Context, day time.Time) (map[string]int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	hours := make(map[string]int, 24)
	for i := 0; i < 24; i++ {
		hours[fmt.Sprintf("%02d", i)] = 0
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT created_at FROM vote WHERE created_at >= $1 AND created_at < $2
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan vote time: %w", err)
		}
		hours[fmt.Sprintf("%02d", at.UTC().Hour())]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly votes: %w", err)
	}
	return hours, nil
}

// PurgeContestant deletes a contestant together with its votes and vote
// counts in one transaction. It returns the number of votes removed.
func (l *Ledger) PurgeContestant(ctx context.Context, contestantID string) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM contestant WHERE id = $1)
	`, contestantID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to look up contestant: %w", err)
	}
	if !exists {
		return 0, ErrContestantNotFound
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE contestant_id = $1`, contestantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted votes: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote_count WHERE contestant_id = $1`, contestantID); err != nil {
		return 0, fmt.Errorf("failed to delete vote counts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contestant WHERE id = $1`, contestantID); err != nil {
		return 0, fmt.Errorf("failed to delete contestant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	slog.Info("contestant purged", "contestant_id", contestantID, "votes_removed", removed)
	return removed, nil
}
