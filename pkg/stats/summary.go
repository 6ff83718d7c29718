// Package stats reduces raw handshake latency samples to summary statistics
// and compares two sample sets with a nonparametric significance test.
//
// All aggregates are computed over successful trials only, at the samples'
// native (nanosecond) resolution. Rounding is a presentation concern and
// never happens here.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/seifb13/tlsbench/pkg/sample"
)

// Summary holds descriptive statistics for one sample set. Count covers
// successful trials only; failed trials appear in FailureCount. A Summary
// with Count == 0 is degenerate and must be treated as inconclusive, not as
// zero latency.
type Summary struct {
	// Count is the number of successful trials aggregated.
	Count int

	// FailureCount is the number of failed trials, excluded from aggregates.
	FailureCount int

	// Mean is the arithmetic mean latency.
	Mean time.Duration

	// Median is the 50th percentile latency.
	Median time.Duration

	// StdDev is the sample standard deviation (n-1 denominator).
	StdDev time.Duration

	// Min and Max bound the successful latencies.
	Min time.Duration
	Max time.Duration

	sorted []time.Duration
}

// Summarize reduces a sample set. It reads the set only, so summarizing the
// same sealed set twice yields identical results.
func Summarize(set *sample.Set) Summary {
	lat := set.Latencies()
	s := Summary{
		Count:        len(lat),
		FailureCount: set.FailureCount(),
	}
	if len(lat) == 0 {
		return s
	}

	sorted := make([]time.Duration, len(lat))
	copy(sorted, lat)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.sorted = sorted
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]

	var sum float64
	for _, d := range lat {
		sum += float64(d)
	}
	mean := sum / float64(len(lat))
	s.Mean = time.Duration(math.Round(mean))

	if len(lat) > 1 {
		var sq float64
		for _, d := range lat {
			diff := float64(d) - mean
			sq += diff * diff
		}
		s.StdDev = time.Duration(math.Round(math.Sqrt(sq / float64(len(lat)-1))))
	}

	s.Median = s.Percentile(50)
	return s
}

// Degenerate reports whether the summary has no successful trials.
func (s Summary) Degenerate() bool { return s.Count == 0 }

// Percentile returns the p-th percentile (0 <= p <= 100) using linear
// interpolation between order statistics: rank = p/100 * (n-1). This is the
// "linear" rule and is fixed so cross-run comparisons are reproducible.
// Returns 0 on a degenerate summary.
func (s Summary) Percentile(p float64) time.Duration {
	n := len(s.sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s.sorted[0]
	}
	if p >= 100 {
		return s.sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s.sorted[lo]
	}
	frac := rank - float64(lo)
	v := float64(s.sorted[lo]) + frac*(float64(s.sorted[hi])-float64(s.sorted[lo]))
	return time.Duration(math.Round(v))
}
