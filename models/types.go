package models

import (
	"fmt"
	"strings"
	"time"
)

// Round is a named phase of the competition
type Round string

const (
	RoundRegistration Round = "REGISTRATION"
	RoundDistrict     Round = "DISTRICT"
	RoundProvince     Round = "PROVINCE"
	RoundSemiFinal    Round = "SEMI_FINAL"
	RoundFinale       Round = "FINALE"
	RoundCompleted    Round = "COMPLETED"
)

// Rounds lists every round in competition order
var Rounds = []Round{
	RoundRegistration,
	RoundDistrict,
	RoundProvince,
	RoundSemiFinal,
	RoundFinale,
	RoundCompleted,
}

// Valid reports whether r is one of the known rounds
func (r Round) Valid() bool {
	for _, known := range Rounds {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRound accepts a round name in any case ("district", "SEMI_FINAL")
func ParseRound(s string) (Round, error) {
	r := Round(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown round %q", s)
	}
	return r, nil
}

// Contestant status constants
const (
	StatusPending      = "PENDING"
	StatusApproved     = "APPROVED"
	StatusRejected     = "REJECTED"
	StatusDisqualified = "DISQUALIFIED"
	StatusWithdrawn    = "WITHDRAWN"
)

// Request types

type CastVoteRequest struct {
	ContestantID string `json:"contestant_id"`
	Round        string `json:"round,omitempty"`
}

// Response types

type CastVoteResponse struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	VoteCount int    `json:"vote_count,omitempty"`
}

type VotingStatusResponse struct {
	VotingEnabled bool   `json:"voting_enabled"`
	CurrentRound  *Round `json:"current_round"`
	Message       string `json:"message"`
}

type HasVotedResponse struct {
	ContestantID string `json:"contestant_id"`
	Round        Round  `json:"round"`
	HasVoted     bool   `json:"has_voted"`
}

type ResultsStatusResponse struct {
	ResultsReleased bool   `json:"results_released"`
	Message         string `json:"message"`
}

type ContestantResponse struct {
	Contestant Contestant `json:"contestant"`
	Votes      int        `json:"votes"`
	RoundVotes int        `json:"round_votes"`
	Round      Round      `json:"round"`
}

type LeaderboardResponse struct {
	Scope   string           `json:"scope"`
	ScopeID string           `json:"scope_id,omitempty"`
	Round   Round            `json:"round"`
	Entries []StandingsEntry `json:"entries"`
}

type RecountResponse struct {
	Checked int               `json:"checked"`
	Drifted []CountDivergence `json:"drifted"`
}

type VoterVotesResponse struct {
	Votes []Vote `json:"votes"`
}

type SuspiciousVotesResponse struct {
	Origin    string            `json:"origin"`
	Window    string            `json:"window"`
	Threshold int               `json:"threshold"`
	Records   []SuspicionRecord `json:"records"`
}

type HourlyVotesResponse struct {
	Date  string         `json:"date"`
	Hours map[string]int `json:"hours"`
}

type PhasesResponse struct {
	Phases []CompetitionPhase `json:"phases"`
}

type PurgeResponse struct {
	ContestantID string `json:"contestant_id"`
	VotesRemoved int64  `json:"votes_removed"`
}

// Domain types

type Contestant struct {
	ID           string    `json:"id"`
	ContestantNo string    `json:"contestant_no"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Status       string    `json:"status"`
	DistrictID   string    `json:"district_id"`
	ProvinceID   string    `json:"province_id"`
	OverallRank  *int      `json:"overall_rank,omitempty"`
	DistrictRank *int      `json:"district_rank,omitempty"`
	ProvinceRank *int      `json:"province_rank,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CompetitionPhase struct {
	Round         Round      `json:"round"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"is_active"`
	VotingEnabled bool       `json:"voting_enabled"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

type Vote struct {
	ID           string    `json:"id"`
	VoterID      string    `json:"-"` // Never expose in JSON
	ContestantID string    `json:"contestant_id"`
	Round        Round     `json:"round"`
	IPHash       *string   `json:"-"` // Never expose in JSON
	UserAgent    *string   `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}

type VoteCount struct {
	ContestantID string    `json:"contestant_id"`
	Round        Round     `json:"round"`
	Count        int       `json:"count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CountDivergence is a vote_count row that disagreed with the ledger
type CountDivergence struct {
	ContestantID string `json:"contestant_id"`
	Round        Round  `json:"round"`
	Cached       int    `json:"cached"`
	Actual       int    `json:"actual"`
}

type StandingsEntry struct {
	Rank         int    `json:"rank"`
	ContestantID string `json:"contestant_id"`
	ContestantNo string `json:"contestant_no"`
	Name         string `json:"name"`
	DistrictID   string `json:"district_id"`
	ProvinceID   string `json:"province_id"`
	Votes        int    `json:"votes"`
}

// Fraud review types

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type SuspicionRecord struct {
	Origin    string        `json:"origin"` // "network" or "client"
	OriginKey string        `json:"origin_key"`
	VoteCount int           `json:"vote_count"`
	Threshold int           `json:"threshold"`
	Window    time.Duration `json:"window_ns"`
	Since     time.Time     `json:"since"`
	Until     time.Time     `json:"until"`
	Severity  Severity      `json:"severity"`
	Reason    string        `json:"reason"`
}

type VoteStats struct {
	TotalVotes      int            `json:"total_votes"`
	UniqueVoters    int            `json:"unique_voters"`
	VotesByRound    map[Round]int  `json:"votes_by_round"`
	VotesByDistrict map[string]int `json:"votes_by_district"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
