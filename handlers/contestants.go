// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

type ContestantHandler struct {
	db     *sql.DB
	counts *tally.Cache
	engine *ranking.Engine
	cfg    cliparse.Config
}

func NewContestantHandler(db *sql.DB, counts *tally.Cache, engine *ranking.Engine, cfg cliparse.Config) *ContestantHandler {
	return &ContestantHandler{db: db, counts: counts, engine: engine, cfg: cfg}
}

// GetContestant handles GET /contestants/{id}
// Only approved contestants are public
func (h *ContestantHandler) GetContestant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var c models.Contestant
	var overall, district, province sql.NullInt64
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, contestant_no, first_name, last_name, status, district_id, province_id,
		       overall_rank, district_rank, province_rank, created_at
		FROM contestant
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.ContestantNo, &c.FirstName, &c.LastName, &c.Status, &c.DistrictID, &c.ProvinceID,
		&overall, &district, &province, &c.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) || (err == nil && c.Status != models.StatusApproved) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Contestant not found")
		return
	}
	if err != nil {
		slog.Error("failed to query contestant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	c.OverallRank = rankPtr(overall)
	c.DistrictRank = rankPtr(district)
	c.ProvinceRank = rankPtr(province)

	round := h.engine.Round()
	roundVotes, err := h.counts.ReadCount(r.Context(), c.ID, round)
	if err != nil {
		slog.Error("failed to read vote count", "error", err, "contestant_id", c.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	total, err := h.counts.TotalCount(r.Context(), c.ID)
	if err != nil {
		slog.Error("failed to read total vote count", "error", err, "contestant_id", c.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ContestantResponse{
		Contestant: c,
		Votes:      total,
		RoundVotes: roundVotes,
		Round:      round,
	})
}

func rankPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// Leaderboard handles GET /leaderboard?scope=overall|district|province&id=&limit=
func (h *ContestantHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := ranking.Scope{Kind: q.Get("scope"), ID: q.Get("id")}
	if scope.Kind == "" {
		scope.Kind = ranking.ScopeOverall
	}

	limit := defaultLeaderboardLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := h.engine.Leaderboard(r.Context(), scope, limit)
	if errors.Is(err, ranking.ErrUnknownScope) || errors.Is(err, ranking.ErrScopeIDRequired) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to read leaderboard", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LeaderboardResponse{
		Scope:   scope.Kind,
		ScopeID: scope.ID,
		Round:   h.engine.Round(),
		Entries: entries,
	})
}
