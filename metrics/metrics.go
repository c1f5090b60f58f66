// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics provides Prometheus metrics for the vote ledger and its batch jobs.
//
// All recording methods are safe on a nil *Manager so components can run
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector and the registry they are registered on.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	processMetrics   bool

	// Vote ledger
	votesCast    *prometheus.CounterVec
	castLatency  prometheus.Histogram
	countDrift   prometheus.Counter
	phaseLookups *prometheus.CounterVec

	// Batch jobs
	rankDuration      prometheus.Histogram
	rankedContestants prometheus.Gauge
	flaggedOrigins    prometheus.Gauge
	jobFailures       *prometheus.CounterVec
	jobRuns           *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithProcessMetrics also registers the Go runtime and process collectors.
func WithProcessMetrics() Option {
	return func(m *Manager) {
		m.processMetrics = true
	}
}

// NewManager creates a Manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "starvote",
		subsystem:        "ledger",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.processMetrics {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.votesCast = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_cast_total",
		Help:      "Vote attempts by outcome",
	}, []string{"outcome", "round"})

	m.castLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cast_duration_seconds",
		Help:      "Time spent in CastVote including the storage round-trip",
		Buckets:   m.histogramBuckets,
	})

	m.countDrift = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "count_drift_total",
		Help:      "Vote count rows found diverging from the ledger",
	})

	m.phaseLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "phase_lookups_total",
		Help:      "Phase gate lookups by cache result",
	}, []string{"result"})

	m.rankDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "jobs",
		Name:      "rank_recompute_duration_seconds",
		Help:      "Duration of a full ranking recompute",
		Buckets:   m.histogramBuckets,
	})

	m.rankedContestants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "jobs",
		Name:      "ranked_contestants",
		Help:      "Approved contestants ranked by the last recompute",
	})

	m.flaggedOrigins = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "jobs",
		Name:      "flagged_origins",
		Help:      "Origins flagged by the last fraud scan",
	})

	m.jobRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Background job runs by job",
	}, []string{"job"})

	m.jobFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "jobs",
		Name:      "failures_total",
		Help:      "Background job failures by job",
	}, []string{"job"})
}

// Registry exposes the registry for tests and custom handlers.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordVote counts a vote attempt and its latency.
func (m *Manager) RecordVote(outcome, round string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.votesCast.WithLabelValues(outcome, round).Inc()
	m.castLatency.Observe(elapsed.Seconds())
}

// RecordDrift counts vote_count rows that disagreed with the ledger.
func (m *Manager) RecordDrift(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.countDrift.Add(float64(n))
}

// RecordPhaseLookup counts a phase gate lookup as "hit" or "miss".
func (m *Manager) RecordPhaseLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.phaseLookups.WithLabelValues(result).Inc()
}

// RecordRanking records a completed ranking recompute.
func (m *Manager) RecordRanking(contestants int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rankDuration.Observe(elapsed.Seconds())
	m.rankedContestants.Set(float64(contestants))
}

// SetFlaggedOrigins records how many origins the last fraud scan flagged.
func (m *Manager) SetFlaggedOrigins(n int) {
	if m == nil {
		return
	}
	m.flaggedOrigins.Set(float64(n))
}

// RecordJob counts a background job run and whether it failed.
func (m *Manager) RecordJob(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
	if err != nil {
		m.jobFailures.WithLabelValues(job).Inc()
	}
}
