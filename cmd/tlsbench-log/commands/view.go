// Package commands implements the tlsbench-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// ViewOptions specifies criteria for filtering events in the view command.
type ViewOptions struct {
	Group        string
	Phase        string
	FailuresOnly bool
}

// RunView prints the trial log in human-readable format.
func RunView(path string, opts ViewOptions, w io.Writer) error {
	filter := tlslog.Filter{
		Group:        opts.Group,
		FailuresOnly: opts.FailuresOnly,
	}
	if opts.Phase != "" {
		p, err := ParsePhaseFlag(opts.Phase)
		if err != nil {
			return err
		}
		filter.Phase = &p
	}

	reader, err := tlslog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close() //nolint:errcheck

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event tlslog.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	setID := shortenID(event.ConfigID)

	switch {
	case event.Trial != nil:
		tr := event.Trial
		status := "ok"
		if !tr.Success {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s [set:%s] %-16s %s #%d %s\n",
			ts, setID, event.Group, tr.Phase, tr.Seq, status)
		if tr.Success {
			fmt.Fprintf(w, "  Elapsed: %s\n", tr.Elapsed.Round(time.Microsecond))
		} else {
			fmt.Fprintf(w, "  Reason: %s\n", tr.Reason)
			if tr.Detail != "" {
				fmt.Fprintf(w, "  Detail: %s\n", tr.Detail)
			}
		}

	case event.Campaign != nil:
		c := event.Campaign
		fmt.Fprintf(w, "%s [set:%s] %-16s state %s -> %s\n",
			ts, setID, event.Group, c.OldState, c.NewState)
		if c.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", c.Reason)
		}

	case event.Error != nil:
		fmt.Fprintf(w, "%s [set:%s] %-16s ERROR\n", ts, setID, event.Group)
		fmt.Fprintf(w, "  %s\n", event.Error.Message)

	default:
		fmt.Fprintf(w, "%s [set:%s] %-16s (empty event)\n", ts, setID, event.Group)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a set or run ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParsePhaseFlag parses a phase name from a CLI flag.
func ParsePhaseFlag(s string) (tlslog.Phase, error) {
	switch s {
	case "warmup":
		return tlslog.PhaseWarmup, nil
	case "measured":
		return tlslog.PhaseMeasured, nil
	default:
		return 0, fmt.Errorf("unknown phase %q (want warmup or measured)", s)
	}
}
