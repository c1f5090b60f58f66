// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/star-vote/auth"
	"github.com/danielhkuo/star-vote/cliparse"
	"github.com/danielhkuo/star-vote/ledger"
	"github.com/danielhkuo/star-vote/middleware"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/phase"
)

type VotingHandler struct {
	ledger *ledger.Ledger
	gate   *phase.Gate
	cfg    cliparse.Config
}

func NewVotingHandler(l *ledger.Ledger, gate *phase.Gate, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{ledger: l, gate: gate, cfg: cfg}
}

func rejectVote(w http.ResponseWriter, message string) {
	middleware.JSONResponse(w, ledger.ValidationError.HTTPStatus(), models.CastVoteResponse{
		Success: false,
		Reason:  ledger.ValidationError.String(),
		Message: message,
	})
}

// defaultRound is the open round, else DISTRICT
func (h *VotingHandler) defaultRound(ctx context.Context) (models.Round, error) {
	current, open, err := h.gate.CurrentRound(ctx)
	if err != nil {
		return "", err
	}
	if !open {
		return models.RoundDistrict, nil
	}
	return current, nil
}

// CastVote handles POST /votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := middleware.VoterID(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// Parse request
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		rejectVote(w, "Invalid JSON")
		return
	}

	if req.ContestantID == "" {
		rejectVote(w, "contestant_id is required")
		return
	}

	var round models.Round
	if req.Round != "" {
		parsed, err := models.ParseRound(req.Round)
		if err != nil {
			rejectVote(w, err.Error())
			return
		}
		round = parsed
	} else {
		current, err := h.defaultRound(r.Context())
		if err != nil {
			slog.Error("failed to resolve current round", "error", err)
			middleware.JSONResponse(w, ledger.StorageError.HTTPStatus(), models.CastVoteResponse{
				Success: false,
				Reason:  ledger.StorageError.String(),
				Message: ledger.StorageError.Message(),
			})
			return
		}
		round = current
	}

	res, _ := h.ledger.CastVote(r.Context(), ledger.Ballot{
		VoterID:      voterID,
		ContestantID: req.ContestantID,
		Round:        round,
		Origin: ledger.Origin{
			IPHash:    auth.HashIP(middleware.GetClientIP(r, h.cfg.TrustedProxies), h.cfg.IPHashSalt),
			UserAgent: r.UserAgent(),
		},
	})

	resp := models.CastVoteResponse{
		Success: res.Outcome == ledger.Accepted,
		Reason:  res.Outcome.String(),
		Message: res.Message,
	}
	if resp.Success {
		resp.VoteCount = res.Count
	}
	middleware.JSONResponse(w, res.Outcome.HTTPStatus(), resp)
}

// Status handles GET /votes/status
func (h *VotingHandler) Status(w http.ResponseWriter, r *http.Request) {
	round, open, err := h.gate.CurrentRound(r.Context())
	if err != nil {
		slog.Error("failed to query voting status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.VotingStatusResponse{
		VotingEnabled: open,
		Message:       "Voting is currently closed",
	}
	if open {
		resp.CurrentRound = &round
		resp.Message = "Voting is open for the " + string(round) + " round"
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// MyVotes handles GET /votes/me
func (h *VotingHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	voterID, ok := middleware.VoterID(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var round models.Round
	if q := r.URL.Query().Get("round"); q != "" {
		parsed, err := models.ParseRound(q)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		round = parsed
	}

	votes, err := h.ledger.VotesByVoter(r.Context(), voterID, round)
	if err != nil {
		slog.Error("failed to list votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoterVotesResponse{Votes: votes})
}

// Check handles GET /votes/check?contestant_id=&round=
func (h *VotingHandler) Check(w http.ResponseWriter, r *http.Request) {
	voterID, ok := middleware.VoterID(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	contestantID := r.URL.Query().Get("contestant_id")
	if contestantID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "contestant_id is required")
		return
	}

	var round models.Round
	if q := r.URL.Query().Get("round"); q != "" {
		parsed, err := models.ParseRound(q)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		round = parsed
	} else {
		current, err := h.defaultRound(r.Context())
		if err != nil {
			slog.Error("failed to resolve current round", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		round = current
	}

	voted, err := h.ledger.HasVoted(r.Context(), voterID, contestantID, round)
	if err != nil {
		slog.Error("failed to check vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HasVotedResponse{
		ContestantID: contestantID,
		Round:        round,
		HasVoted:     voted,
	})
}

// ResultsStatus handles GET /results/status
func (h *VotingHandler) ResultsStatus(w http.ResponseWriter, r *http.Request) {
	released, err := h.gate.ResultsReleased(r.Context())
	if err != nil {
		slog.Error("failed to query results status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.ResultsStatusResponse{
		ResultsReleased: released,
		Message:         "Results will be available after the competition ends",
	}
	if released {
		resp.Message = "Results have been released"
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
