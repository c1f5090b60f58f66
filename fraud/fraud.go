// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package fraud flags bursts of votes that share an origin.
//
// Results are advisory. Nothing here blocks or removes votes; records are
// handed to a Reporter for human review.
package fraud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/star-vote/models"
)

// Origin kinds a scan can group by
const (
	ByNetwork = "network" // hashed client IP
	ByClient  = "client"  // User-Agent string
)

var ErrInvalidQuery = errors.New("invalid fraud query")

// Query configures one scan
type Query struct {
	Window   time.Duration
	MaxVotes int
	By       string // ByNetwork when empty
}

func (q Query) column() (string, error) {
	switch q.By {
	case ByNetwork, "":
		return "ip_hash", nil
	case ByClient:
		return "user_agent", nil
	}
	return "", fmt.Errorf("%w: unknown origin %q", ErrInvalidQuery, q.By)
}

// Detector scans the vote ledger for origins above a vote threshold
type Detector struct {
	db  *sql.DB
	now func() time.Time
}

func NewDetector(db *sql.DB) *Detector {
	return &Detector{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DetectSuspiciousVotes groups the votes of the last window by network
// origin and returns every origin with more than maxVotes votes, most
// votes first.
func (d *Detector) DetectSuspiciousVotes(ctx context.Context, window time.Duration, maxVotes int) ([]models.SuspicionRecord, error) {
	return d.Detect(ctx, Query{Window: window, MaxVotes: maxVotes, By: ByNetwork})
}

// Detect runs a scan. Votes with no recorded origin are never grouped.
func (d *Detector) Detect(ctx context.Context, q Query) ([]models.SuspicionRecord, error) {
	column, err := q.column()
	if err != nil {
		return nil, err
	}
	if q.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", ErrInvalidQuery)
	}
	if q.MaxVotes < 0 {
		return nil, fmt.Errorf("%w: max votes must not be negative", ErrInvalidQuery)
	}

	origin := q.By
	if origin == "" {
		origin = ByNetwork
	}

	until := d.now()
	since := until.Add(-q.Window)

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) AS votes
		FROM vote
		WHERE created_at >= $1 AND `+column+` IS NOT NULL AND `+column+` <> ''
		GROUP BY `+column+`
		HAVING COUNT(*) > $2
		ORDER BY votes DESC, `+column+`
	`, since, q.MaxVotes)
	if err != nil {
		return nil, fmt.Errorf("failed to scan votes by %s: %w", origin, err)
	}
	defer rows.Close()

	records := []models.SuspicionRecord{}
	for rows.Next() {
		r := models.SuspicionRecord{
			Origin:    origin,
			Threshold: q.MaxVotes,
			Window:    q.Window,
			Since:     since,
			Until:     until,
		}
		if err := rows.Scan(&r.OriginKey, &r.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan suspicion record: %w", err)
		}
		r.Severity = severity(r.VoteCount, q.MaxVotes)
		r.Reason = fmt.Sprintf("%d votes from same %s origin in %s", r.VoteCount, origin, q.Window)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suspicion records: %w", err)
	}
	return records, nil
}

// severity grades a count against its threshold: under 2x is LOW, under
// 5x is MEDIUM, anything more is HIGH. A zero threshold is always HIGH.
func severity(count, threshold int) models.Severity {
	switch {
	case threshold <= 0:
		return models.SeverityHigh
	case count < 2*threshold:
		return models.SeverityLow
	case count < 5*threshold:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}

// Reporter receives the records of a scan, for example to file them in a
// review queue.
type Reporter interface {
	Report(ctx context.Context, records []models.SuspicionRecord) error
}

// LogReporter writes each record as a warning
type LogReporter struct{}

func (LogReporter) Report(_ context.Context, records []models.SuspicionRecord) error {
	for _, r := range records {
		slog.Warn("suspicious voting pattern",
			"origin", r.Origin,
			"origin_key", r.OriginKey,
			"votes", r.VoteCount,
			"threshold", r.Threshold,
			"window", r.Window,
			"severity", r.Severity,
		)
	}
	return nil
}
