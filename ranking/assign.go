// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// TiePolicy decides which rank equal vote counts receive
type TiePolicy int

const (
	// Sequential gives every contestant its position: [10,7,7,3] -> [1,2,3,4]
	Sequential TiePolicy = iota
	// Dense shares ranks and leaves no gaps: [10,7,7,3] -> [1,2,2,3]
	Dense
	// Competition shares ranks and skips after a tie: [10,7,7,3] -> [1,2,2,4]
	Competition
)

func (p TiePolicy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Dense:
		return "dense"
	case Competition:
		return "competition"
	default:
		return fmt.Sprintf("TiePolicy(%d)", int(p))
	}
}

// ParseTiePolicy accepts "sequential", "dense" or "competition" in any case
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "dense":
		return Dense, nil
	case "competition":
		return Competition, nil
	}
	return Sequential, fmt.Errorf("unknown tie policy %q", s)
}

// Entry is one contestant's standing input
type Entry struct {
	ContestantID string
	ContestantNo string
	DistrictID   string
	ProvinceID   string
	Votes        int
}

// Ranked is an Entry with its assigned rank
type Ranked struct {
	Entry
	Rank int
}

// Assign orders entries by votes descending, then contestant number, then
// id, and numbers them according to policy. The input slice is not modified.
func Assign(entries []Entry, policy TiePolicy) []Ranked {
	ranked := make([]Ranked, len(entries))
	for i, e := range entries {
		ranked[i] = Ranked{Entry: e}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		// 1. More votes first
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}

		// 2. Stable tie-breaking by contestant number, then id
		if a.ContestantNo != b.ContestantNo {
			return a.ContestantNo < b.ContestantNo
		}
		return a.ContestantID < b.ContestantID
	})

	dense := 0
	for i := range ranked {
		tied := i > 0 && ranked[i].Votes == ranked[i-1].Votes
		if !tied {
			dense++
		}

		switch policy {
		case Dense:
			ranked[i].Rank = dense
		case Competition:
			if tied {
				ranked[i].Rank = ranked[i-1].Rank
			} else {
				ranked[i].Rank = i + 1
			}
		default:
			ranked[i].Rank = i + 1
		}
	}

	return ranked
}

// groupBy splits entries by key, keeping their relative order
func groupBy(entries []Entry, key func(Entry) string) map[string][]Entry {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		k := key(e)
		groups[k] = append(groups[k], e)
	}
	return groups
}
