package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// RunExport exports the trial log to JSONL or CSV.
func RunExport(path, format, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	reader, err := tlslog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close() //nolint:errcheck

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format %q (want jsonl or csv)", format)
	}
}

// jsonEvent mirrors tlslog.Event with readable JSON field names.
type jsonEvent struct {
	Timestamp string   `json:"timestamp"`
	RunID     string   `json:"run_id"`
	ConfigID  string   `json:"config_id,omitempty"`
	Group     string   `json:"group,omitempty"`
	Target    string   `json:"target,omitempty"`
	Seq       *int     `json:"seq,omitempty"`
	Phase     string   `json:"phase,omitempty"`
	Success   *bool    `json:"success,omitempty"`
	ElapsedMs *float64 `json:"elapsed_ms,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	OldState  string   `json:"old_state,omitempty"`
	NewState  string   `json:"new_state,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func exportJSONL(reader *tlslog.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		je := jsonEvent{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			RunID:     event.RunID,
			ConfigID:  event.ConfigID,
			Group:     event.Group,
			Target:    event.Target,
		}
		switch {
		case event.Trial != nil:
			tr := event.Trial
			je.Seq = &tr.Seq
			je.Phase = tr.Phase.String()
			je.Success = &tr.Success
			if tr.Success {
				ms := float64(tr.Elapsed) / float64(time.Millisecond)
				je.ElapsedMs = &ms
			}
			je.Reason = tr.Reason
			je.Detail = tr.Detail
		case event.Campaign != nil:
			je.OldState = event.Campaign.OldState
			je.NewState = event.Campaign.NewState
			je.Reason = event.Campaign.Reason
		case event.Error != nil:
			je.Error = event.Error.Message
		}

		if err := enc.Encode(je); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

// exportCSV writes trial events only; state transitions and errors have no
// tabular shape.
func exportCSV(reader *tlslog.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "run_id", "config_id", "group", "phase", "seq", "success", "elapsed_ns", "reason", "detail"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return cw.Error()
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if event.Trial == nil {
			continue
		}

		tr := event.Trial
		row := []string{
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			event.RunID,
			event.ConfigID,
			event.Group,
			tr.Phase.String(),
			strconv.Itoa(tr.Seq),
			strconv.FormatBool(tr.Success),
			strconv.FormatInt(int64(tr.Elapsed), 10),
			tr.Reason,
			tr.Detail,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
}
