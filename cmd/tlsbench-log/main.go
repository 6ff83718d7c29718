// Command tlsbench-log is a tool for viewing and analyzing trial log files.
//
// Trial logs are created by running tlsbench with the -trial-log flag. They
// record every handshake attempt (warm-up and measured) plus sample set
// state transitions, CBOR-encoded for compact append-only writes.
//
// Usage:
//
//	tlsbench-log <command> [flags] <file.tlog>
//
// Commands:
//
//	view     View trial log in human-readable format
//	export   Export trial log to JSONL or CSV format
//	filter   Filter trial log and write to new file
//	stats    Show statistics about the trial log
//
// Examples:
//
//	# View all events
//	tlsbench-log view run.tlog
//
//	# View only measured-phase failures for a group
//	tlsbench-log view --group X25519MLKEM768 --phase measured --failures run.tlog
//
//	# Export to CSV
//	tlsbench-log export --format csv -o trials.csv run.tlog
//
//	# Keep one group's events in a new file
//	tlsbench-log filter --group X25519 -o x25519.tlog run.tlog
//
//	# Show statistics
//	tlsbench-log stats run.tlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/seifb13/tlsbench/cmd/tlsbench-log/commands"
)

const usage = `tlsbench-log - Handshake Trial Log Analyzer

Usage:
  tlsbench-log <command> [flags] <file.tlog>

Commands:
  view     View trial log in human-readable format
  export   Export trial log to JSONL or CSV format
  filter   Filter trial log and write to new file
  stats    Show statistics about the trial log

Use "tlsbench-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet builds a flag set whose usage text follows the
// "tlsbench-log <name> - <summary>" convention shared by all commands.
func newFlagSet(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "tlsbench-log %s - %s\n\nUsage:\n  tlsbench-log %s [flags] <file.tlog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

// logPath parses args and returns the positional log file path.
func logPath(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", fmt.Errorf("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	fs := newFlagSet("view", "View trial log in human-readable format")
	group := fs.String("group", "", "Filter by key-exchange group")
	phase := fs.String("phase", "", "Filter by phase (warmup, measured)")
	failures := fs.Bool("failures", false, "Show only failed trials")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunView(path, commands.ViewOptions{
		Group:        *group,
		Phase:        *phase,
		FailuresOnly: *failures,
	}, os.Stdout)
}

func runExport(args []string) error {
	fs := newFlagSet("export", "Export trial log to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", "Filter trial log and write to new file")
	output := fs.String("o", "", "Output file (required)")
	runID := fs.String("run-id", "", "Filter by run ID")
	configID := fs.String("config-id", "", "Filter by sample set ID")
	group := fs.String("group", "", "Filter by key-exchange group")
	phase := fs.String("phase", "", "Filter by phase (warmup, measured)")
	failures := fs.Bool("failures", false, "Keep only failed trials")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file (-o) required")
	}
	return commands.RunFilter(path, commands.FilterOptions{
		Output:       *output,
		RunID:        *runID,
		ConfigID:     *configID,
		Group:        *group,
		Phase:        *phase,
		FailuresOnly: *failures,
		TimeStart:    *timeStart,
		TimeEnd:      *timeEnd,
	})
}

func runStats(args []string) error {
	fs := newFlagSet("stats", "Show statistics about the trial log")
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}
