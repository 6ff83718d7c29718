// Package store persists campaign runs for later audit and comparison.
// All implementations satisfy the Store interface so the CLI can swap
// backends without changing measurement logic.
package store

import (
	"context"
	"time"

	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/pkg/sample"
)

// Store is the persistence interface for campaign results.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveRun persists a whole campaign result: the run, its sample sets,
	// every trial, and a computed summary per set. Atomic.
	SaveRun(ctx context.Context, res *runner.Result) error

	// GetRun returns a run by ID, or nil when absent.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns all runs, most recent first.
	ListRuns(ctx context.Context) ([]*RunRecord, error)

	// ListSampleSets returns the sample sets of a run in campaign order.
	ListSampleSets(ctx context.Context, runID string) ([]*SampleSetRecord, error)

	// ListTrials returns the trials of a sample set in temporal order.
	ListTrials(ctx context.Context, configID string) ([]sample.Trial, error)

	// GetSummary returns the stored summary for a sample set, or nil.
	GetSummary(ctx context.Context, configID string) (*SummaryRecord, error)

	// Close releases database resources.
	Close() error
}

// RunRecord is the persistent record of one campaign run.
type RunRecord struct {
	ID       string    `json:"id"`
	Target   string    `json:"target"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// SampleSetRecord is the persistent record of one configuration's set.
type SampleSetRecord struct {
	ConfigID string `json:"config_id"`
	RunID    string `json:"run_id"`
	Group    string `json:"group"`
	State    string `json:"state"`
	Status   string `json:"status"`
	Trials   int    `json:"trials"`
	Failures int    `json:"failures"`
}

// SummaryRecord is the persistent latency summary of one sample set.
// Durations keep full nanosecond resolution.
type SummaryRecord struct {
	ConfigID string        `json:"config_id"`
	Count    int           `json:"count"`
	Failures int           `json:"failures"`
	Mean     time.Duration `json:"mean_ns"`
	Median   time.Duration `json:"median_ns"`
	StdDev   time.Duration `json:"stddev_ns"`
	Min      time.Duration `json:"min_ns"`
	Max      time.Duration `json:"max_ns"`
	P95      time.Duration `json:"p95_ns"`
	P99      time.Duration `json:"p99_ns"`
}
