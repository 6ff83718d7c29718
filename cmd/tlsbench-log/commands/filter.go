package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// FilterOptions specifies criteria and output for the filter command.
type FilterOptions struct {
	Output       string
	RunID        string
	ConfigID     string
	Group        string
	Phase        string
	FailuresOnly bool
	TimeStart    string
	TimeEnd      string
}

// RunFilter reads the trial log, keeps matching events, and writes them to
// a new log file in the same CBOR format.
func RunFilter(path string, opts FilterOptions) error {
	filter := tlslog.Filter{
		RunID:        opts.RunID,
		ConfigID:     opts.ConfigID,
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
	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &t
	}

	reader, err := tlslog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close() //nolint:errcheck

	writer, err := tlslog.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			writer.Close() //nolint:errcheck
			return fmt.Errorf("failed to read event: %w", err)
		}
		writer.Log(event)
		count++
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize output file: %w", err)
	}

	fmt.Printf("Wrote %d events to %s\n", count, opts.Output)
	return nil
}
