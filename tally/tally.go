// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally maintains the vote_count projection of the vote ledger.
//
// Counts are always recomputed from the ledger, never incremented, so a
// missed or failed update heals on the next refresh for the same pair.
package tally

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConsistencyError reports a vote_count row that diverged from the ledger.
// It is for operators only and is never shown to voters.
type ConsistencyError struct {
	ContestantID string
	Round        models.Round
	Cached       int
	Actual       int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("vote count for %s/%s is %d, ledger has %d", e.ContestantID, e.Round, e.Cached, e.Actual)
}

// Cache owns the vote_count table. Nothing else writes it.
type Cache struct {
	db      *sql.DB
	metrics *metrics.Manager
	now     func() time.Time

	// afterCompare, when set, runs between the comparison read and the repairs
	afterCompare func()
}

func NewCache(db *sql.DB, m *metrics.Manager) *Cache {
	return &Cache{db: db, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

// RefreshCount recomputes the count for (contestantID, round) in its own transaction.
func (c *Cache) RefreshCount(ctx context.Context, contestantID string, round models.Round) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin refresh: %w", err)
	}
	defer tx.Rollback()

	n, err := c.RefreshCountTx(ctx, tx, contestantID, round)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit refresh: %w", err)
	}
	return n, nil
}

// RefreshCountTx recomputes the count inside the caller's transaction.
//
// The first statement upserts the row, which takes its row lock. The COUNT
// runs as a later statement, so under READ COMMITTED it sees every vote
// committed by whoever held the lock before us.
func (c *Cache) RefreshCountTx(ctx context.Context, q Querier, contestantID string, round models.Round) (int, error) {
	now := c.now()

	_, err := q.ExecContext(ctx, `
		INSERT INTO vote_count (contestant_id, round, count, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (contestant_id, round) DO UPDATE SET updated_at = excluded.updated_at
	`, contestantID, string(round), now)
	if err != nil {
		return 0, fmt.Errorf("failed to lock vote count: %w", err)
	}

	var n int
	err = q.QueryRowContext(ctx, `
		UPDATE vote_count
		SET count = (SELECT COUNT(*) FROM vote WHERE contestant_id = $1 AND round = $2),
		    updated_at = $3
		WHERE contestant_id = $1 AND round = $2
		RETURNING count
	`, contestantID, string(round), now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to recount votes: %w", err)
	}

	return n, nil
}

// ReadCount returns the cached count for (contestantID, round), 0 if none.
func (c *Cache) ReadCount(ctx context.Context, contestantID string, round models.Round) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `
		SELECT count FROM vote_count WHERE contestant_id = $1 AND round = $2
	`, contestantID, string(round)).Scan(&n)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read vote count: %w", err)
	}
	return n, nil
}

// TotalCount sums the cached counts of a contestant across all rounds.
func (c *Cache) TotalCount(ctx context.Context, contestantID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(count), 0) FROM vote_count WHERE contestant_id = $1
	`, contestantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to read total vote count: %w", err)
	}
	return n, nil
}

// Reconcile compares every cached count with the ledger and force-refreshes
// pairs that differ by more than tolerance. Pairs with votes but no
// vote_count row are treated as cached 0. It returns the number of pairs
// checked and the divergences found.
//
// Both sides are read by one statement, so a vote committed while the
// comparison runs is either in both or in neither.
func (c *Cache) Reconcile(ctx context.Context, tolerance int) (int, []*ConsistencyError, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT contestant_id, round, SUM(cached), SUM(actual)
		FROM (
			SELECT contestant_id, round, count AS cached, 0 AS actual FROM vote_count
			UNION ALL
			SELECT contestant_id, round, 0 AS cached, COUNT(*) AS actual
			FROM vote GROUP BY contestant_id, round
		) pairs
		GROUP BY contestant_id, round
	`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to compare vote counts: %w", err)
	}

	checked := 0
	var drifted []*ConsistencyError
	for rows.Next() {
		var d ConsistencyError
		if err := rows.Scan(&d.ContestantID, &d.Round, &d.Cached, &d.Actual); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan vote count pair: %w", err)
		}
		checked++

		diff := d.Cached - d.Actual
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			drifted = append(drifted, &d)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to iterate vote count pairs: %w", err)
	}

	if c.afterCompare != nil {
		c.afterCompare()
	}

	c.metrics.RecordDrift(len(drifted))

	var errs []error
	for _, d := range drifted {
		slog.Error("vote count diverged from ledger",
			"contestant_id", d.ContestantID,
			"round", d.Round,
			"cached", d.Cached,
			"actual", d.Actual,
		)
		if _, err := c.RefreshCount(ctx, d.ContestantID, d.Round); err != nil {
			errs = append(errs, fmt.Errorf("failed to refresh %s/%s: %w", d.ContestantID, d.Round, err))
		}
	}

	return checked, drifted, errors.Join(errs...)
}
