// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/star-vote/fraud"
	"github.com/danielhkuo/star-vote/metrics"
	"github.com/danielhkuo/star-vote/models"
	"github.com/danielhkuo/star-vote/ranking"
	"github.com/danielhkuo/star-vote/tally"
)

// Job names, also used as metric labels
const (
	JobRankings  = "rankings"
	JobFraudScan = "fraud_scan"
	JobReconcile = "reconcile"
)

type Ranker interface {
	RecomputeRankings(ctx context.Context) (ranking.Summary, error)
}

type Scanner interface {
	Detect(ctx context.Context, q fraud.Query) ([]models.SuspicionRecord, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, tolerance int) (int, []*tally.ConsistencyError, error)
}

// RankingsJob recomputes every rank field
func RankingsJob(r Ranker, interval time.Duration) Job {
	return Job{
		Name:       JobRankings,
		Interval:   interval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			_, err := r.RecomputeRankings(ctx)
			return err
		},
	}
}

// FraudScanJob scans the last window of votes by network origin and then
// by client signature, handing any findings to the reporter.
func FraudScanJob(s Scanner, rep fraud.Reporter, m *metrics.Manager, interval, window time.Duration, maxVotes int) Job {
	return Job{
		Name:     JobFraudScan,
		Interval: interval,
		Run: func(ctx context.Context) error {
			var all []models.SuspicionRecord
			for _, by := range []string{fraud.ByNetwork, fraud.ByClient} {
				records, err := s.Detect(ctx, fraud.Query{Window: window, MaxVotes: maxVotes, By: by})
				if err != nil {
					return err
				}
				all = append(all, records...)
			}

			m.SetFlaggedOrigins(len(all))
			if len(all) == 0 {
				return nil
			}
			if err := rep.Report(ctx, all); err != nil {
				return fmt.Errorf("failed to report suspicious votes: %w", err)
			}
			return nil
		},
	}
}

// ReconcileJob checks the vote_count table against the ledger
func ReconcileJob(r Reconciler, interval time.Duration, tolerance int) Job {
	return Job{
		Name:     JobReconcile,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, _, err := r.Reconcile(ctx, tolerance)
			return err
		},
	}
}
