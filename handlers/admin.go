// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/phase"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
)

// AdminHandler serves the operator endpoints. Routes are wrapped in
// middleware.RequireAdmin, so handlers here do not check the key.
type AdminHandler struct {
	ledger   *ledger.Ledger
	gate     *phase.Gate
	counts   *tally.Cache
	engine   *ranking.Engine
	detector *fraud.Detector
	cfg      cliparse.Config
}

func NewAdminHandler(l *ledger.Ledger, gate *phase.Gate, counts *tally.Cache, engine *ranking.Engine, detector *fraud.Detector, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{ledger: l, gate: gate, counts: counts, engine: engine, detector: detector, cfg: cfg}
}

// RecomputeRankings handles POST /admin/rankings
func (h *AdminHandler) RecomputeRankings(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.RecomputeRankings(r.Context())
	if err != nil {
		slog.Error("failed to recompute rankings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to recompute rankings")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// parseWindow accepts a Go duration ("10m") or a bare number of minutes
func parseWindow(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

// Suspicious handles GET /admin/suspicious?window=&max=&by=
func (h *AdminHandler) Suspicious(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := fraud.Query{
		Window:   h.cfg.FraudWindow,
		MaxVotes: h.cfg.FraudThreshold,
		By:       fraud.ByNetwork,
	}

	if s := q.Get("window"); s != "" {
		d, err := parseWindow(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "window must be a duration such as 5m")
			return
		}
		query.Window = d
	}
	if s := q.Get("max"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "max must be an integer")
			return
		}
		query.MaxVotes = n
	}
	if s := q.Get("by"); s != "" {
		query.By = s
	}

	records, err := h.detector.Detect(r.Context(), query)
	if errors.Is(err, fraud.ErrInvalidQuery) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to scan for suspicious votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuspiciousVotesResponse{
		Origin:    query.By,
		Window:    query.Window.String(),
		Threshold: query.MaxVotes,
		Records:   records,
	})
}

// Recount handles POST /admin/recount
func (h *AdminHandler) Recount(w http.ResponseWriter, r *http.Request) {
	checked, drifted, err := h.counts.Reconcile(r.Context(), h.cfg.ReconcileTolerance)
	if err != nil {
		slog.Error("failed to reconcile vote counts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reconcile vote counts")
		return
	}

	resp := models.RecountResponse{Checked: checked, Drifted: []models.CountDivergence{}}
	for _, d := range drifted {
		resp.Drifted = append(resp.Drifted, models.CountDivergence{
			ContestantID: d.ContestantID,
			Round:        d.Round,
			Cached:       d.Cached,
			Actual:       d.Actual,
		})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Stats handles GET /admin/stats?round=&from=&to=
// from and to are RFC 3339 timestamps
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter ledger.StatsFilter

	if s := q.Get("round"); s != "" {
		round, err := models.ParseRound(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Round = round
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, p.name+" must be an RFC 3339 timestamp")
			return
		}
		*p.dst = t
	}

	stats, err := h.ledger.Stats(r.Context(), filter)
	if err != nil {
		slog.Error("failed to compute vote stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

// Hourly handles GET /admin/stats/hourly?date=YYYY-MM-DD (UTC, default today)
func (h *AdminHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	hours, err := h.ledger.HourlyVotes(r.Context(), day)
	if err != nil {
		slog.Error("failed to compute hourly votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.HourlyVotesResponse{
		Date:  day.Format(time.DateOnly),
		Hours: hours,
	})
}

// RefreshPhases handles POST /admin/phases/refresh
// Drops cached phase state so edits to competition_phase apply immediately
func (h *AdminHandler) RefreshPhases(w http.ResponseWriter, r *http.Request) {
	h.gate.Invalidate()

	phases, err := h.gate.Phases(r.Context())
	if err != nil {
		slog.Error("failed to list phases", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PhasesResponse{Phases: phases})
}

// PurgeContestant handles DELETE /admin/contestants/{id}
func (h *AdminHandler) PurgeContestant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	removed, err := h.ledger.PurgeContestant(r.Context(), id)
	if errors.Is(err, ledger.ErrContestantNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Contestant not found")
		return
	}
	if err != nil {
		slog.Error("failed to purge contestant", "error", err, "contestant_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete contestant")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PurgeResponse{
		ContestantID: id,
		VotesRemoved: removed,
	})
}
