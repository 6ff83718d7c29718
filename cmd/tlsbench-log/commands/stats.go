package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// Stats holds aggregate statistics about a trial log file.
type Stats struct {
	TotalEvents int
	Transitions int
	Errors      int
	Groups      map[string]*GroupStats
	TimeRange   struct {
		Start time.Time
		End   time.Time
	}
}

// GroupStats holds statistics for a single key-exchange group.
type GroupStats struct {
	FirstSeen time.Time
	Warmup    int
	Measured  int
	Failures  int
	Reasons   map[string]int
	totalNs   int64
	Min       time.Duration
	Max       time.Duration
}

// MeanLatency returns the mean latency over successful measured trials.
func (g *GroupStats) MeanLatency() time.Duration {
	successes := g.Measured - g.Failures
	if successes <= 0 {
		return 0
	}
	return time.Duration(g.totalNs / int64(successes))
}

// RunStats analyzes the trial log and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := tlslog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close() //nolint:errcheck

	stats := &Stats{Groups: make(map[string]*GroupStats)}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Trial != nil:
			gs, ok := stats.Groups[event.Group]
			if !ok {
				gs = &GroupStats{FirstSeen: event.Timestamp, Reasons: make(map[string]int)}
				stats.Groups[event.Group] = gs
			}
			tr := event.Trial
			if tr.Phase == tlslog.PhaseWarmup {
				gs.Warmup++
				continue
			}
			gs.Measured++
			if !tr.Success {
				gs.Failures++
				gs.Reasons[tr.Reason]++
				continue
			}
			gs.totalNs += int64(tr.Elapsed)
			if gs.Min == 0 || tr.Elapsed < gs.Min {
				gs.Min = tr.Elapsed
			}
			if tr.Elapsed > gs.Max {
				gs.Max = tr.Elapsed
			}

		case event.Campaign != nil:
			stats.Transitions++

		case event.Error != nil:
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Handshake Trial Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events:      %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "State Transitions: %d\n", stats.Transitions)
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors:            %d\n", stats.Errors)
	}
	fmt.Fprintln(w)

	// Sort groups by first appearance so output follows campaign order.
	names := make([]string, 0, len(stats.Groups))
	for name := range stats.Groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return stats.Groups[names[i]].FirstSeen.Before(stats.Groups[names[j]].FirstSeen)
	})

	for _, name := range names {
		gs := stats.Groups[name]
		fmt.Fprintf(w, "Group %s:\n", name)
		fmt.Fprintf(w, "  Warmup:    %d\n", gs.Warmup)
		fmt.Fprintf(w, "  Measured:  %d (%d failed)\n", gs.Measured, gs.Failures)
		if gs.Measured > gs.Failures {
			fmt.Fprintf(w, "  Mean:      %s\n", gs.MeanLatency().Round(time.Microsecond))
			fmt.Fprintf(w, "  Min/Max:   %s / %s\n",
				gs.Min.Round(time.Microsecond), gs.Max.Round(time.Microsecond))
		}
		if len(gs.Reasons) > 0 {
			reasons := make([]string, 0, len(gs.Reasons))
			for r := range gs.Reasons {
				reasons = append(reasons, r)
			}
			sort.Strings(reasons)
			for _, r := range reasons {
				fmt.Fprintf(w, "  %-10s %d\n", r+":", gs.Reasons[r])
			}
		}
		fmt.Fprintln(w)
	}
}
