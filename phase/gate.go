// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package phase answers whether a competition round is open for voting.
package phase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/models"
)

// state is the cached view of one competition_phase row
type state struct {
	found         bool
	isActive      bool
	votingEnabled bool
}

func (s state) open() bool {
	return s.found && s.isActive && s.votingEnabled
}

// Gate reads competition_phase rows through a short-lived cache.
// Phases are changed by administrators, so a few seconds of staleness is fine.
type Gate struct {
	db      *sql.DB
	cache   *expirable.LRU[models.Round, state]
	metrics *metrics.Manager
	now     func() time.Time
}

// NewGate creates a Gate. A ttl of zero disables caching.
func NewGate(db *sql.DB, ttl time.Duration, m *metrics.Manager) *Gate {
	g := &Gate{db: db, metrics: m, now: time.Now}
	if ttl > 0 {
		g.cache = expirable.NewLRU[models.Round, state](len(models.Rounds), nil, ttl)
	}
	return g
}

// IsVotingOpen reports whether round exists, is active and has voting enabled.
func (g *Gate) IsVotingOpen(ctx context.Context, round models.Round) (bool, error) {
	s, err := g.lookup(ctx, round)
	if err != nil {
		return false, err
	}
	return s.open(), nil
}

// CurrentRound returns the first round, in competition order, that is open
// for voting. ok is false when no round is open.
func (g *Gate) CurrentRound(ctx context.Context) (round models.Round, ok bool, err error) {
	for _, r := range models.Rounds {
		open, err := g.IsVotingOpen(ctx, r)
		if err != nil {
			return "", false, err
		}
		if open {
			return r, true, nil
		}
	}
	return "", false, nil
}

// Phases lists every configured phase in competition order.
func (g *Gate) Phases(ctx context.Context) ([]models.CompetitionPhase, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT round, name, is_active, voting_enabled, start_date, end_date
		FROM competition_phase
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query phases: %w", err)
	}
	defer rows.Close()

	byRound := make(map[models.Round]models.CompetitionPhase)
	for rows.Next() {
		var p models.CompetitionPhase
		var start, end sql.NullTime
		if err := rows.Scan(&p.Round, &p.Name, &p.IsActive, &p.VotingEnabled, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		if start.Valid {
			p.StartDate = &start.Time
		}
		if end.Valid {
			p.EndDate = &end.Time
		}
		byRound[p.Round] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phases: %w", err)
	}

	phases := make([]models.CompetitionPhase, 0, len(byRound))
	for _, r := range models.Rounds {
		if p, ok := byRound[r]; ok {
			phases = append(phases, p)
		}
	}
	return phases, nil
}

// ResultsReleased reports whether final results may be published: COMPLETED
// is active, or FINALE is active and its end_date has passed. It always reads
// the database.
func (g *Gate) ResultsReleased(ctx context.Context) (bool, error) {
	phases, err := g.Phases(ctx)
	if err != nil {
		return false, err
	}
	now := g.now()
	for _, p := range phases {
		if !p.IsActive {
			continue
		}
		switch p.Round {
		case models.RoundCompleted:
			return true, nil
		case models.RoundFinale:
			if p.EndDate != nil && !p.EndDate.After(now) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Invalidate drops every cached phase so the next lookup hits the database.
func (g *Gate) Invalidate() {
	if g.cache != nil {
		g.cache.Purge()
	}
}

func (g *Gate) lookup(ctx context.Context, round models.Round) (state, error) {
	if g.cache != nil {
		if s, ok := g.cache.Get(round); ok {
			g.metrics.RecordPhaseLookup(true)
			return s, nil
		}
	}
	g.metrics.RecordPhaseLookup(false)

	s := state{found: true}
	err := g.db.QueryRowContext(ctx, `
		SELECT is_active, voting_enabled FROM competition_phase WHERE round = $1
	`, string(round)).Scan(&s.isActive, &s.votingEnabled)

	if errors.Is(err, sql.ErrNoRows) {
		// Missing rows are cached as closed too
		s = state{}
	} else if err != nil {
		return state{}, fmt.Errorf("failed to query phase %s: %w", round, err)
	}

	if g.cache != nil {
		g.cache.Add(round, s)
	}
	return s, nil
}
