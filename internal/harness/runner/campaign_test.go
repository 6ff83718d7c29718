package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifb13/tlsbench/pkg/handshake"
	"github.com/seifb13/tlsbench/pkg/sample"
	"github.com/seifb13/tlsbench/pkg/stats"
	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// stubDriver returns canned results, keyed by call number (1-based).
type stubDriver struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, group string) handshake.Result
}

func (d *stubDriver) Perform(_ context.Context, group string) handshake.Result {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()
	return d.fn(call, group)
}

func (d *stubDriver) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func success(elapsed time.Duration) handshake.Result {
	return handshake.Result{
		Start:   time.Now(),
		Elapsed: elapsed,
		Outcome: sample.Outcome{Success: true},
	}
}

func failure(reason sample.FailureReason) handshake.Result {
	return handshake.Result{
		Start:   time.Now(),
		Outcome: sample.Outcome{Reason: reason, Detail: reason.String()},
	}
}

// recordingLogger captures events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []tlslog.Event
}

func (l *recordingLogger) Log(ev tlslog.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordingLogger) all() []tlslog.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]tlslog.Event, len(l.events))
	copy(out, l.events)
	return out
}

func TestNew_RejectsUnknownGroup(t *testing.T) {
	drv := &stubDriver{fn: func(int, string) handshake.Result { return success(time.Millisecond) }}
	_, err := New(drv, Config{
		Target: "localhost:4433",
		Groups: []GroupConfig{{Group: "NotAGroup"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotAGroup")
}

func TestNew_RejectsNilDriverAndEmptyGroups(t *testing.T) {
	_, err := New(nil, Config{Groups: []GroupConfig{{Group: "X25519"}}})
	require.Error(t, err)

	drv := &stubDriver{fn: func(int, string) handshake.Result { return success(time.Millisecond) }}
	_, err = New(drv, Config{})
	require.Error(t, err)
}

func TestRun_WarmupExcludedFromMeasuredSet(t *testing.T) {
	drv := &stubDriver{fn: func(int, string) handshake.Result { return success(2 * time.Millisecond) }}
	c, err := New(drv, Config{
		Target: "localhost:4433",
		Groups: []GroupConfig{{Group: "X25519", Iterations: 20, Warmup: 10}},
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)

	gr := res.Groups[0]
	assert.Equal(t, StatusCompleted, gr.Status)
	assert.Equal(t, 10, gr.WarmupAttempted)
	assert.Equal(t, 20, gr.Set.Len())
	assert.Equal(t, sample.Complete, gr.Set.State())
	assert.Equal(t, 30, drv.callCount())
	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Finished.Before(res.Started))
}

func TestRun_FailureThresholdAborts(t *testing.T) {
	// First six trials after warmup fail: with a 5% threshold over 100
	// iterations the sixth failure breaches it.
	drv := &stubDriver{fn: func(call int, _ string) handshake.Result {
		if call <= 6 {
			return failure(sample.ReasonTimeout)
		}
		return success(time.Millisecond)
	}}
	c, err := New(drv, Config{
		Target:           "localhost:4433",
		FailureThreshold: 0.05,
		Groups:           []GroupConfig{{Group: "X25519", Iterations: 100, Warmup: 1}},
	})
	require.NoError(t, err)

	// Shift the failures into the measured phase: one warmup call plus
	// five measured failures stays under the limit, the sixth breaches.
	drv.fn = func(call int, _ string) handshake.Result {
		if call >= 2 && call <= 7 {
			return failure(sample.ReasonTimeout)
		}
		return success(time.Millisecond)
	}

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	gr := res.Groups[0]

	assert.Equal(t, StatusAborted, gr.Status)
	assert.Equal(t, sample.Aborted, gr.Set.State())
	assert.Equal(t, 6, gr.Set.FailureCount())
	assert.Equal(t, 6, gr.Set.Len())
	assert.True(t, gr.Inconclusive())

	// An aborted set still compares as inconclusive downstream.
	other := sample.NewSet("X25519MLKEM768")
	tr := success(time.Millisecond).Trial(other.ConfigID(), other.Group())
	require.NoError(t, other.Append(tr))
	require.NoError(t, other.Seal())
	cmp := stats.Compare(gr.Set, other)
	assert.Equal(t, stats.Inconclusive, cmp.Verdict)
}

func TestRun_FailuresWithinThresholdComplete(t *testing.T) {
	// 4 failures in 100 iterations: under the 5% threshold.
	drv := &stubDriver{fn: func(call int, _ string) handshake.Result {
		if call%25 == 0 {
			return failure(sample.ReasonRefused)
		}
		return success(time.Millisecond)
	}}
	c, err := New(drv, Config{
		Target: "localhost:4433",
		Groups: []GroupConfig{{Group: "X25519", Iterations: 100, Warmup: 1}},
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	gr := res.Groups[0]

	assert.Equal(t, StatusCompleted, gr.Status)
	assert.Equal(t, 100, gr.Set.Len())
	assert.Equal(t, 4, gr.Set.FailureCount())
	assert.Equal(t, sample.Complete, gr.Set.State())
}

func TestRun_CancellationYieldsSummarizablePartialSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel after 30 measured trials.
	drv := &stubDriver{}
	drv.fn = func(call int, _ string) handshake.Result {
		if call == 35 { // 5 warmup + 30 measured
			cancel()
		}
		return success(3 * time.Millisecond)
	}

	c, err := New(drv, Config{
		Target: "localhost:4433",
		Groups: []GroupConfig{{Group: "X25519", Iterations: 1000, Warmup: 5}},
	})
	require.NoError(t, err)

	res, err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Groups, 1)

	gr := res.Groups[0]
	assert.Equal(t, StatusCancelled, gr.Status)
	assert.Equal(t, sample.Complete, gr.Set.State())
	assert.Equal(t, 30, gr.Set.Len())

	sum := stats.Summarize(gr.Set)
	assert.Equal(t, 30, sum.Count)
	assert.Equal(t, 3*time.Millisecond, sum.Median)
}

func TestRun_MultipleGroupsInOrder(t *testing.T) {
	drv := &stubDriver{fn: func(int, string) handshake.Result { return success(time.Millisecond) }}
	c, err := New(drv, Config{
		Target: "localhost:4433",
		Pause:  time.Millisecond,
		Groups: []GroupConfig{
			{Group: "X25519", Iterations: 5, Warmup: 1},
			{Group: "X25519MLKEM768", Iterations: 5, Warmup: 1},
		},
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "X25519", res.Groups[0].Set.Group())
	assert.Equal(t, "X25519MLKEM768", res.Groups[1].Set.Group())
	assert.NotEqual(t, res.Groups[0].Set.ConfigID(), res.Groups[1].Set.ConfigID())

	assert.NotNil(t, res.SetFor("X25519MLKEM768"))
	assert.Nil(t, res.SetFor("P-256"))
}

func TestRun_EmitsTrialAndTransitionEvents(t *testing.T) {
	logger := &recordingLogger{}
	drv := &stubDriver{fn: func(call int, _ string) handshake.Result {
		if call == 3 {
			return failure(sample.ReasonGroupRejected)
		}
		return success(time.Millisecond)
	}}
	c, err := New(drv, Config{
		Target:      "localhost:4433",
		TrialLogger: logger,
		Groups:      []GroupConfig{{Group: "P-256", Iterations: 4, Warmup: 2}},
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	events := logger.all()
	var warmup, measured, transitions int
	for _, ev := range events {
		switch {
		case ev.Trial != nil && ev.Trial.Phase == tlslog.PhaseWarmup:
			warmup++
		case ev.Trial != nil && ev.Trial.Phase == tlslog.PhaseMeasured:
			measured++
		case ev.Campaign != nil:
			transitions++
			assert.Equal(t, "complete", ev.Campaign.NewState)
		}
		assert.Equal(t, res.RunID, ev.RunID)
		assert.Equal(t, "localhost:4433", ev.Target)
	}
	assert.Equal(t, 2, warmup)
	assert.Equal(t, 4, measured)
	assert.Equal(t, 1, transitions)

	// The failed measured trial carries its classification.
	var sawFailure bool
	for _, ev := range events {
		if ev.Trial != nil && !ev.Trial.Success && ev.Trial.Phase == tlslog.PhaseMeasured {
			sawFailure = true
			assert.Equal(t, "group_rejected", ev.Trial.Reason)
		}
	}
	assert.True(t, sawFailure)
}

func TestRetryPolicy_RetriesTransientFailures(t *testing.T) {
	drv := &stubDriver{fn: func(call int, _ string) handshake.Result {
		if call < 3 {
			return failure(sample.ReasonRefused)
		}
		return success(2 * time.Millisecond)
	}}
	policy := &RetryPolicy{Driver: drv, MaxAttempts: 3, BaseDelay: time.Millisecond}

	res := policy.Perform(context.Background(), "X25519")
	assert.True(t, res.Outcome.Success)
	assert.Equal(t, 2*time.Millisecond, res.Elapsed)
	assert.Equal(t, 3, drv.callCount())
}

func TestRetryPolicy_DoesNotRetryNegotiationFailures(t *testing.T) {
	for _, reason := range []sample.FailureReason{sample.ReasonGroupRejected, sample.ReasonTLSAlert} {
		t.Run(reason.String(), func(t *testing.T) {
			drv := &stubDriver{fn: func(int, string) handshake.Result { return failure(reason) }}
			policy := &RetryPolicy{Driver: drv, MaxAttempts: 5, BaseDelay: time.Millisecond}

			res := policy.Perform(context.Background(), "X25519")
			assert.False(t, res.Outcome.Success)
			assert.Equal(t, reason, res.Outcome.Reason)
			assert.Equal(t, 1, drv.callCount())
		})
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	drv := &stubDriver{fn: func(int, string) handshake.Result { return failure(sample.ReasonTimeout) }}
	policy := &RetryPolicy{Driver: drv, MaxAttempts: 4, BaseDelay: time.Millisecond}

	res := policy.Perform(context.Background(), "X25519")
	assert.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonTimeout, res.Outcome.Reason)
	assert.Equal(t, 4, drv.callCount())
}

func TestRetryPolicy_InsideCampaign(t *testing.T) {
	// A refused trial that recovers on retry records as a success, with
	// the final attempt's timing only.
	drv := &stubDriver{}
	drv.fn = func(call int, _ string) handshake.Result {
		if call%3 == 1 {
			return failure(sample.ReasonRefused)
		}
		return success(time.Duration(call) * time.Millisecond)
	}
	policy := &RetryPolicy{Driver: drv, MaxAttempts: 2, BaseDelay: time.Millisecond}

	c, err := New(policy, Config{
		Target: "localhost:4433",
		Groups: []GroupConfig{{Group: "X25519", Iterations: 4, Warmup: 1}},
	})
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	gr := res.Groups[0]
	assert.Equal(t, 4, gr.Set.Len())
	for i, tr := range gr.Set.Trials() {
		assert.True(t, tr.Outcome.Success, fmt.Sprintf("trial %d", i))
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "aborted", StatusAborted.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
}
