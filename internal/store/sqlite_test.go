package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/pkg/sample"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bench.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func buildResult(t *testing.T) *runner.Result {
	t.Helper()
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	classical := sample.NewSet("X25519")
	for i := 0; i < 10; i++ {
		require.NoError(t, classical.Append(sample.Trial{
			ConfigID: classical.ConfigID(),
			Group:    "X25519",
			Start:    started.Add(time.Duration(i) * time.Second),
			Elapsed:  time.Duration(10+i) * time.Millisecond,
			Outcome:  sample.Succeeded(),
		}))
	}
	require.NoError(t, classical.Append(sample.Trial{
		ConfigID: classical.ConfigID(),
		Group:    "X25519",
		Start:    started.Add(10 * time.Second),
		Outcome:  sample.Failed(sample.ReasonTimeout, "context deadline exceeded"),
	}))
	require.NoError(t, classical.Seal())

	aborted := sample.NewSet("X25519MLKEM768")
	for i := 0; i < 3; i++ {
		require.NoError(t, aborted.Append(sample.Trial{
			ConfigID: aborted.ConfigID(),
			Group:    "X25519MLKEM768",
			Start:    started.Add(time.Minute),
			Outcome:  sample.Failed(sample.ReasonRefused, "connection refused"),
		}))
	}
	require.NoError(t, aborted.Abort())

	return &runner.Result{
		RunID:    "run-store-1",
		Target:   "localhost:4433",
		Started:  started,
		Finished: started.Add(2 * time.Minute),
		Groups: []*runner.GroupResult{
			{Set: classical, Status: runner.StatusCompleted},
			{Set: aborted, Status: runner.StatusAborted},
		},
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := buildResult(t)

	require.NoError(t, s.SaveRun(ctx, res))

	run, err := s.GetRun(ctx, "run-store-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "localhost:4433", run.Target)
	assert.True(t, run.Started.Equal(res.Started))
	assert.True(t, run.Finished.Equal(res.Finished))

	sets, err := s.ListSampleSets(ctx, "run-store-1")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "X25519", sets[0].Group)
	assert.Equal(t, "complete", sets[0].State)
	assert.Equal(t, "completed", sets[0].Status)
	assert.Equal(t, 11, sets[0].Trials)
	assert.Equal(t, 1, sets[0].Failures)
	assert.Equal(t, "aborted", sets[1].State)
	assert.Equal(t, "aborted", sets[1].Status)
}

func TestSaveRun_TrialsPreserveOrderAndOutcome(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := buildResult(t)
	require.NoError(t, s.SaveRun(ctx, res))

	configID := res.Groups[0].Set.ConfigID()
	trials, err := s.ListTrials(ctx, configID)
	require.NoError(t, err)
	require.Len(t, trials, 11)

	assert.Equal(t, 10*time.Millisecond, trials[0].Elapsed)
	assert.Equal(t, 19*time.Millisecond, trials[9].Elapsed)
	assert.Equal(t, "X25519", trials[0].Group)
	assert.True(t, trials[0].Outcome.Success)

	last := trials[10]
	assert.False(t, last.Outcome.Success)
	assert.Equal(t, sample.ReasonTimeout, last.Outcome.Reason)
	assert.Equal(t, "context deadline exceeded", last.Outcome.Detail)
}

func TestSaveRun_StoresSummaryForSuccessfulSets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := buildResult(t)
	require.NoError(t, s.SaveRun(ctx, res))

	sum, err := s.GetSummary(ctx, res.Groups[0].Set.ConfigID())
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 10, sum.Count)
	assert.Equal(t, 1, sum.Failures)
	assert.Equal(t, 14500*time.Microsecond, sum.Mean)
	assert.Equal(t, 10*time.Millisecond, sum.Min)
	assert.Equal(t, 19*time.Millisecond, sum.Max)

	// The aborted set has no successes, so no summary row.
	sum, err = s.GetSummary(ctx, res.Groups[1].Set.ConfigID())
	require.NoError(t, err)
	assert.Nil(t, sum)
}

func TestSaveRun_DuplicateRunIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := buildResult(t)

	require.NoError(t, s.SaveRun(ctx, res))
	assert.Error(t, s.SaveRun(ctx, res))
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	early := buildResult(t)
	early.RunID = "run-a"
	late := buildResult(t)
	late.RunID = "run-b"
	late.Started = late.Started.Add(time.Hour)
	// New config IDs so the sample_sets primary key does not collide.
	for i, gr := range late.Groups {
		set := sample.NewSet(gr.Set.Group())
		for _, tr := range gr.Set.Trials() {
			tr.ConfigID = set.ConfigID()
			require.NoError(t, set.Append(tr))
		}
		if gr.Set.State() == sample.Aborted {
			require.NoError(t, set.Abort())
		} else {
			require.NoError(t, set.Seal())
		}
		late.Groups[i] = &runner.GroupResult{Set: set, Status: gr.Status}
	}

	require.NoError(t, s.SaveRun(ctx, early))
	require.NoError(t, s.SaveRun(ctx, late))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
}

func TestGetRun_AbsentReturnsNil(t *testing.T) {
	s := openTestStore(t)

	run, err := s.GetRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, run)

	trials, err := s.ListTrials(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, trials)
}
