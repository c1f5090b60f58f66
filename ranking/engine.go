// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

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

// Scope kinds for Leaderboard
const (
	ScopeOverall  = "overall"
	ScopeDistrict = "district"
	ScopeProvince = "province"
)

var (
	ErrUnknownScope    = errors.New("unknown leaderboard scope")
	ErrScopeIDRequired = errors.New("scope id is required")
)

// Scope selects which rank field a leaderboard is read from
type Scope struct {
	Kind string
	ID   string // district or province id; unused for overall
}

// Summary describes one RecomputeRankings run
type Summary struct {
	Contestants int           `json:"contestants"`
	Districts   int           `json:"districts"`
	Provinces   int           `json:"provinces"`
	Cleared     int64         `json:"cleared"`
	Duration    time.Duration `json:"duration_ns"`
}

// Engine writes the overall, district and province rank fields of
// contestants from the vote counts of one standings round.
type Engine struct {
	db      *sql.DB
	round   models.Round
	policy  TiePolicy
	metrics *metrics.Manager
}

func NewEngine(db *sql.DB, round models.Round, policy TiePolicy, m *metrics.Manager) *Engine {
	return &Engine{db: db, round: round, policy: policy, metrics: m}
}

// Round returns the standings round rankings are computed from
func (e *Engine) Round() models.Round {
	return e.round
}

// RecomputeRankings reads every approved contestant with its vote count
// and rewrites all rank fields in a single transaction. Contestants that
// are no longer approved have their ranks cleared.
func (e *Engine) RecomputeRankings(ctx context.Context) (Summary, error) {
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin ranking: %w", err)
	}
	defer tx.Rollback()

	entries, err := e.loadEntries(ctx, tx)
	if err != nil {
		return Summary{}, err
	}

	type ranks struct{ overall, district, province int }
	assigned := make(map[string]*ranks, len(entries))

	for _, r := range Assign(entries, e.policy) {
		assigned[r.ContestantID] = &ranks{overall: r.Rank}
	}

	districts := groupBy(entries, func(e Entry) string { return e.DistrictID })
	for _, group := range districts {
		for _, r := range Assign(group, e.policy) {
			assigned[r.ContestantID].district = r.Rank
		}
	}

	provinces := groupBy(entries, func(e Entry) string { return e.ProvinceID })
	for _, group := range provinces {
		for _, r := range Assign(group, e.policy) {
			assigned[r.ContestantID].province = r.Rank
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE contestant SET overall_rank = $1, district_rank = $2, province_rank = $3
		WHERE id = $4
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to prepare rank update: %w", err)
	}
	defer stmt.Close()

	for id, r := range assigned {
		if _, err := stmt.ExecContext(ctx, r.overall, r.district, r.province, id); err != nil {
			return Summary{}, fmt.Errorf("failed to update ranks for %s: %w", id, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE contestant SET overall_rank = NULL, district_rank = NULL, province_rank = NULL
		WHERE status <> $1
		  AND (overall_rank IS NOT NULL OR district_rank IS NOT NULL OR province_rank IS NOT NULL)
	`, models.StatusApproved)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to clear ranks: %w", err)
	}
	cleared, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit rankings: %w", err)
	}

	summary := Summary{
		Contestants: len(entries),
		Districts:   len(districts),
		Provinces:   len(provinces),
		Cleared:     cleared,
		Duration:    time.Since(start),
	}
	e.metrics.RecordRanking(summary.Contestants, summary.Duration)

	slog.Info("rankings recomputed",
		"round", e.round,
		"policy", e.policy.String(),
		"contestants", summary.Contestants,
		"districts", summary.Districts,
		"provinces", summary.Provinces,
		"cleared", summary.Cleared,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (e *Engine) loadEntries(ctx context.Context, tx *sql.Tx) ([]Entry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.contestant_no, c.district_id, c.province_id, COALESCE(vc.count, 0)
		FROM contestant c
		LEFT JOIN vote_count vc ON vc.contestant_id = c.id AND vc.round = $1
		WHERE c.status = $2
	`, string(e.round), models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var en Entry
		if err := rows.Scan(&en.ContestantID, &en.ContestantNo, &en.DistrictID, &en.ProvinceID, &en.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		entries = append(entries, en)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate standings: %w", err)
	}
	return entries, nil
}

// Leaderboard returns ranked contestants of a scope ordered by rank.
// A limit of zero or less returns every ranked contestant.
func (e *Engine) Leaderboard(ctx context.Context, scope Scope, limit int) ([]models.StandingsEntry, error) {
	var column, filter string
	switch scope.Kind {
	case ScopeOverall, "":
		column = "overall_rank"
	case ScopeDistrict:
		column, filter = "district_rank", "district_id"
	case ScopeProvince:
		column, filter = "province_rank", "province_id"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope.Kind)
	}

	query := `
		SELECT c.` + column + `, c.id, c.contestant_no, c.first_name, c.last_name,
		       c.district_id, c.province_id, COALESCE(vc.count, 0)
		FROM contestant c
		LEFT JOIN vote_count vc ON vc.contestant_id = c.id AND vc.round = $1
		WHERE c.status = $2 AND c.` + column + ` IS NOT NULL`
	args := []any{string(e.round), models.StatusApproved}

	if filter != "" {
		if scope.ID == "" {
			return nil, ErrScopeIDRequired
		}
		args = append(args, scope.ID)
		query += fmt.Sprintf(` AND c.%s = $%d`, filter, len(args))
	}

	query += ` ORDER BY c.` + column + `, c.contestant_no, c.id`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.StandingsEntry{}
	for rows.Next() {
		var s models.StandingsEntry
		var first, last string
		if err := rows.Scan(&s.Rank, &s.ContestantID, &s.ContestantNo, &first, &last,
			&s.DistrictID, &s.ProvinceID, &s.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		s.Name = first + " " + last
		entries = append(entries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return entries, nil
}
