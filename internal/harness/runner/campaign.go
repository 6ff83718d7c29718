// Package runner executes measurement campaigns against a live TLS endpoint.
//
// A campaign drives repeated handshake trials per configured key-exchange
// group, strictly sequentially: one handshake completes before the next
// starts, and configurations never overlap in time against the same
// endpoint. Concurrency would contend for CPU and network buffers and bias
// the very latency being measured.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seifb13/tlsbench/pkg/handshake"
	"github.com/seifb13/tlsbench/pkg/sample"
	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// Defaults for campaign configuration. New applies the iteration,
// threshold and pause defaults; DefaultWarmup is applied by plan loading,
// since a plan may legitimately ask for zero warm-up trials.
const (
	DefaultIterations       = 1000
	DefaultWarmup           = 50
	DefaultFailureThreshold = 0.05
	DefaultPause            = 2 * time.Second
)

// GroupConfig is one measurement configuration.
type GroupConfig struct {
	// Group is the key-exchange group to force.
	Group string

	// Iterations is the number of measured trials.
	Iterations int

	// Warmup is the number of discarded leading trials, run to flush
	// cold-cache and session-resumption artifacts out of the measurement.
	Warmup int

	// Timeout bounds each trial. Zero uses the driver's default.
	Timeout time.Duration
}

// Config configures a campaign.
type Config struct {
	// Target is the endpoint under test (host:port). Informational here;
	// the driver owns the actual connection target.
	Target string

	// Groups are the configurations to measure, in order.
	Groups []GroupConfig

	// FailureThreshold is the tolerated failure fraction per
	// configuration. Once measured failures exceed
	// FailureThreshold * Iterations, the configuration is aborted and its
	// result is inconclusive. Defaults to DefaultFailureThreshold.
	FailureThreshold float64

	// Pause separates consecutive configurations so one group's tail
	// does not contaminate the next group's head. Defaults to DefaultPause.
	Pause time.Duration

	// TrialLogger receives a structured event per trial and state change.
	// Nil disables trial logging.
	TrialLogger tlslog.Logger
}

// Status is the terminal status of one configuration's run.
type Status int

const (
	// StatusCompleted means all planned measured trials ran.
	StatusCompleted Status = iota
	// StatusAborted means the failure threshold was breached; the result
	// is inconclusive.
	StatusAborted
	// StatusCancelled means the campaign was cancelled mid-configuration;
	// the partial sample set is sealed and summarizable.
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// GroupResult is the outcome of one configuration.
type GroupResult struct {
	// Config is the configuration that produced this result.
	Config GroupConfig

	// Set holds the measured trials. Sealed (Complete or Aborted) by the
	// time the campaign returns; safe for concurrent reads.
	Set *sample.Set

	// Status is the configuration's terminal status.
	Status Status

	// WarmupAttempted counts warm-up trials, which never enter Set.
	WarmupAttempted int
}

// Inconclusive reports whether this result must not be read as a valid
// latency estimate.
func (r *GroupResult) Inconclusive() bool {
	return r.Status == StatusAborted || r.Set.SuccessCount() == 0
}

// Result is the outcome of a whole campaign run.
type Result struct {
	// RunID uniquely identifies this campaign run.
	RunID string

	// Target is the endpoint that was measured.
	Target string

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time

	// Groups holds per-configuration results in configuration order.
	Groups []*GroupResult
}

// SetFor returns the sample set for the named group, or nil.
func (r *Result) SetFor(group string) *sample.Set {
	for _, gr := range r.Groups {
		if gr.Set.Group() == group {
			return gr.Set
		}
	}
	return nil
}

// Campaign runs handshake trial campaigns with a single driver.
// Trials for one campaign are strictly sequential; run independent
// campaigns (against disjoint endpoints) from separate Campaigns if
// parallelism is needed.
type Campaign struct {
	driver handshake.Driver
	config Config
	logger tlslog.Logger
}

// New validates the configuration and creates a campaign. Unknown group
// names fail here, before any connection is opened.
func New(driver handshake.Driver, config Config) (*Campaign, error) {
	if driver == nil {
		return nil, fmt.Errorf("campaign: driver is required")
	}
	if len(config.Groups) == 0 {
		return nil, fmt.Errorf("campaign: at least one group configuration is required")
	}
	for i := range config.Groups {
		gc := &config.Groups[i]
		if _, err := handshake.LookupGroup(gc.Group); err != nil {
			return nil, fmt.Errorf("campaign: %w", err)
		}
		if gc.Iterations <= 0 {
			gc.Iterations = DefaultIterations
		}
		if gc.Warmup < 0 {
			return nil, fmt.Errorf("campaign: group %s: negative warmup", gc.Group)
		}
	}
	if config.FailureThreshold < 0 || config.FailureThreshold >= 1 {
		return nil, fmt.Errorf("campaign: failure threshold %g outside [0,1)", config.FailureThreshold)
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	if config.Pause == 0 {
		config.Pause = DefaultPause
	}

	logger := config.TrialLogger
	if logger == nil {
		logger = tlslog.NoopLogger{}
	}

	return &Campaign{driver: driver, config: config, logger: logger}, nil
}

// Run executes every configuration in order. On cancellation it stops
// before the next trial and returns the partial result along with the
// context error; collected sample sets are always sealed and summarizable.
func (c *Campaign) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:   uuid.New().String(),
		Target:  c.config.Target,
		Started: time.Now(),
	}

	for i, gc := range c.config.Groups {
		if i > 0 {
			if err := contextSleep(ctx, c.config.Pause); err != nil {
				result.Finished = time.Now()
				return result, err
			}
		}

		gr, err := c.runGroup(ctx, result.RunID, gc)
		result.Groups = append(result.Groups, gr)
		if err != nil {
			result.Finished = time.Now()
			return result, err
		}
	}

	result.Finished = time.Now()
	return result, nil
}

// runGroup executes one configuration: warm-up phase, then measured phase.
// The returned error is non-nil only for cancellation; threshold aborts are
// reported through the result status.
func (c *Campaign) runGroup(ctx context.Context, runID string, gc GroupConfig) (*GroupResult, error) {
	set := sample.NewSet(gc.Group)
	gr := &GroupResult{Config: gc, Set: set, Status: StatusCompleted}

	// Failures tolerated before the configuration aborts: the threshold
	// is taken over the planned iteration count, so a 5% threshold on
	// 1000 iterations aborts at the 51st failure.
	maxFailures := int(c.config.FailureThreshold * float64(gc.Iterations))

	// Warm-up trials are attempted and logged but never recorded.
	for seq := 0; seq < gc.Warmup; seq++ {
		if err := ctx.Err(); err != nil {
			gr.Status = StatusCancelled
			c.seal(runID, set, sample.Complete, "cancelled during warmup")
			return gr, err
		}
		res := c.trial(ctx, gc)
		gr.WarmupAttempted++
		c.logTrial(runID, set, gc, seq, tlslog.PhaseWarmup, res)
	}

	for seq := 0; seq < gc.Iterations; seq++ {
		if err := ctx.Err(); err != nil {
			gr.Status = StatusCancelled
			c.seal(runID, set, sample.Complete, "cancelled")
			return gr, err
		}

		res := c.trial(ctx, gc)
		c.logTrial(runID, set, gc, seq, tlslog.PhaseMeasured, res)
		if err := set.Append(res.Trial(set.ConfigID(), set.Group())); err != nil {
			// Appending to a set this campaign owns cannot fail unless
			// there is a programming error; surface it.
			return gr, fmt.Errorf("campaign: %w", err)
		}

		if set.FailureCount() > maxFailures {
			gr.Status = StatusAborted
			c.seal(runID, set, sample.Aborted,
				fmt.Sprintf("failure rate exceeded %.1f%% (%d failures in %d trials)",
					c.config.FailureThreshold*100, set.FailureCount(), set.Len()))
			return gr, nil
		}
	}

	c.seal(runID, set, sample.Complete, "")
	return gr, nil
}

// trial runs one handshake, bounding it with the configuration timeout.
func (c *Campaign) trial(ctx context.Context, gc GroupConfig) handshake.Result {
	if gc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.Timeout)
		defer cancel()
	}
	return c.driver.Perform(ctx, gc.Group)
}

func (c *Campaign) seal(runID string, set *sample.Set, to sample.State, reason string) {
	from := set.State()
	if to == sample.Aborted {
		_ = set.Abort()
	} else {
		_ = set.Seal()
	}
	c.logger.Log(tlslog.Event{
		Timestamp: time.Now(),
		RunID:     runID,
		ConfigID:  set.ConfigID(),
		Group:     set.Group(),
		Target:    c.config.Target,
		Campaign: &tlslog.CampaignEvent{
			OldState: from.String(),
			NewState: set.State().String(),
			Reason:   reason,
		},
	})
}

func (c *Campaign) logTrial(runID string, set *sample.Set, gc GroupConfig, seq int, phase tlslog.Phase, res handshake.Result) {
	ev := tlslog.Event{
		Timestamp: res.Start,
		RunID:     runID,
		ConfigID:  set.ConfigID(),
		Group:     gc.Group,
		Target:    c.config.Target,
		Trial: &tlslog.TrialEvent{
			Seq:     seq,
			Phase:   phase,
			Success: res.Outcome.Success,
			Elapsed: res.Elapsed,
		},
	}
	if !res.Outcome.Success {
		ev.Trial.Reason = res.Outcome.Reason.String()
		ev.Trial.Detail = res.Outcome.Detail
	}
	c.logger.Log(ev)
}

// contextSleep waits for the given duration or until the context is done,
// whichever comes first. Returns ctx.Err() if the context was cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
