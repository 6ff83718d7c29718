// Command tlsbench measures TLS 1.3 handshake latency per key-exchange
// group against a live endpoint, comparing classical elliptic-curve groups
// with post-quantum hybrid groups.
//
// Usage:
//
//	tlsbench [flags]
//
// Flags:
//
//	-target string            Endpoint under test (host:port)
//	-plan string              Path to a YAML campaign plan (overrides group flags)
//	-groups string            Comma-separated group names (default "X25519,X25519MLKEM768")
//	-iterations int           Measured trials per group (default 1000)
//	-warmup int               Discarded warm-up trials per group (default 50)
//	-timeout duration         Per-trial timeout (default 5s)
//	-failure-threshold float  Tolerated failure fraction per group (default 0.05)
//	-pause duration           Pause between groups (default 2s)
//	-driver string            Handshake driver: tls, openssl (default "tls")
//	-openssl string           Path to the openssl binary (openssl driver)
//	-base-dir string          OpenSSL installation with the PQC provider (openssl driver)
//	-insecure                 Skip TLS certificate verification
//	-retries int              Attempts per trial for transient failures (default 1)
//	-json                     Output results as JSON
//	-verbose                  Verbose report plus per-trial events on stderr
//	-db string                SQLite database path for persisting results
//	-trial-log string         File path for per-trial event logging (CBOR format)
//
// Examples:
//
//	# Compare X25519 against X25519MLKEM768 on a local endpoint
//	tlsbench -target localhost:4433 -insecure
//
//	# Short sanity run with JSON output
//	tlsbench -target example.com:443 -iterations 100 -warmup 10 -json
//
//	# Exec driver for groups the embedded stack cannot negotiate
//	tlsbench -target localhost:4433 -driver openssl -base-dir ~/ossl-3.5 \
//	    -groups X25519,SecP256r1MLKEM768
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/seifb13/tlsbench/internal/harness/loader"
	"github.com/seifb13/tlsbench/internal/harness/reporter"
	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/internal/store"
	"github.com/seifb13/tlsbench/pkg/tlslog"
)

var (
	target     = flag.String("target", "", "Endpoint under test (host:port)")
	planPath   = flag.String("plan", "", "Path to a YAML campaign plan (overrides group flags)")
	groupsFlag = flag.String("groups", "X25519,X25519MLKEM768", "Comma-separated group names")
	iterations = flag.Int("iterations", runner.DefaultIterations, "Measured trials per group")
	warmup     = flag.Int("warmup", runner.DefaultWarmup, "Discarded warm-up trials per group")
	timeout    = flag.Duration("timeout", 5*time.Second, "Per-trial timeout")
	threshold  = flag.Float64("failure-threshold", runner.DefaultFailureThreshold, "Tolerated failure fraction per group")
	pause      = flag.Duration("pause", runner.DefaultPause, "Pause between groups")
	driverKind = flag.String("driver", "tls", "Handshake driver: tls, openssl")
	opensslBin = flag.String("openssl", "", "Path to the openssl binary (openssl driver)")
	baseDir    = flag.String("base-dir", "", "OpenSSL installation with the PQC provider (openssl driver)")
	insecure   = flag.Bool("insecure", false, "Skip TLS certificate verification")
	retries    = flag.Int("retries", 1, "Attempts per trial for transient failures")
	jsonOut    = flag.Bool("json", false, "Output results as JSON")
	verbose    = flag.Bool("verbose", false, "Verbose report plus per-trial events on stderr")
	dbPath     = flag.String("db", "", "SQLite database path for persisting results")
	trialLog   = flag.String("trial-log", "", "File path for per-trial event logging (CBOR format)")
)

func main() {
	flag.Parse()

	plan, err := buildPlan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if !*jsonOut {
		log.SetFlags(log.Ltime)
		log.Printf("Target: %s", plan.Target)
		log.Printf("Groups: %s", groupNames(plan))
		if *trialLog != "" {
			log.Printf("Trial logging to: %s", *trialLog)
		}
	}

	cfg, err := plan.RunnerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var trialLoggers []tlslog.Logger
	var fileLogger *tlslog.FileLogger
	if *trialLog != "" {
		fileLogger, err = tlslog.NewFileLogger(*trialLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create trial logger: %v\n", err)
			os.Exit(1)
		}
		trialLoggers = append(trialLoggers, fileLogger)
	}
	if *verbose && !*jsonOut {
		handler := slog.NewTextHandler(os.Stderr, nil)
		trialLoggers = append(trialLoggers, tlslog.NewSlogAdapter(slog.New(handler)))
	}
	if len(trialLoggers) > 0 {
		cfg.TrialLogger = tlslog.NewMultiLogger(trialLoggers...)
	}
	defer func() {
		if fileLogger != nil {
			fileLogger.Close() //nolint:errcheck
		}
	}()

	driver, err := plan.BuildDriver()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	campaign, err := runner.New(driver, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Ctrl-C stops before the next trial; collected samples stay valid.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := campaign.Run(ctx)
	if runErr != nil && !*jsonOut {
		log.Printf("Campaign stopped early: %v", runErr)
	}

	report := reporter.BuildCampaignReport(result)
	var rep reporter.Reporter
	if *jsonOut {
		rep = reporter.NewJSONReporter(os.Stdout, *verbose)
	} else {
		rep = reporter.NewTextReporter(os.Stdout, *verbose)
	}
	rep.ReportCampaign(report)

	if *dbPath != "" {
		if err := persist(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to persist results: %v\n", err)
			os.Exit(1)
		}
		if !*jsonOut {
			log.Printf("Results saved to %s (run %s)", *dbPath, result.RunID)
		}
	}

	for _, g := range report.Groups {
		if g.Inconclusive {
			os.Exit(1)
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// buildPlan assembles the campaign plan from a plan file or from flags.
func buildPlan() (*loader.Plan, error) {
	if *planPath != "" {
		return loader.LoadPlan(*planPath)
	}

	if *target == "" {
		return nil, fmt.Errorf("target address is required (-target or -plan)")
	}

	plan := &loader.Plan{
		Target: *target,
		Driver: loader.DriverSpec{
			Kind:        *driverKind,
			OpenSSLPath: *opensslBin,
			BaseDir:     *baseDir,
			Insecure:    *insecure,
		},
		FailureThreshold: *threshold,
		Pause:            pause.String(),
	}
	if *retries > 1 {
		plan.Retry = &loader.RetrySpec{MaxAttempts: *retries}
	}

	w := *warmup
	for _, name := range strings.Split(*groupsFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		plan.Groups = append(plan.Groups, loader.GroupSpec{
			Group:      name,
			Iterations: *iterations,
			Warmup:     &w,
			Timeout:    timeout.String(),
		})
	}
	if len(plan.Groups) == 0 {
		return nil, fmt.Errorf("at least one group is required (-groups)")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func groupNames(plan *loader.Plan) string {
	names := make([]string, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		names = append(names, g.Group)
	}
	return strings.Join(names, ", ")
}

func persist(result *runner.Result) error {
	s, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.SaveRun(ctx, result)
}
