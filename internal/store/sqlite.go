package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/pkg/sample"
	"github.com/seifb13/tlsbench/pkg/stats"
)

// migrations is an ordered list of SQL statements applied on startup.
// Each entry is idempotent (IF NOT EXISTS) so re-running is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id       TEXT PRIMARY KEY,
		target   TEXT NOT NULL,
		started  TEXT NOT NULL,
		finished TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sample_sets (
		config_id TEXT PRIMARY KEY,
		run_id    TEXT NOT NULL REFERENCES runs(id),
		kx_group  TEXT NOT NULL,
		state     TEXT NOT NULL,
		status    TEXT NOT NULL,
		trials    INTEGER NOT NULL,
		failures  INTEGER NOT NULL,
		position  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trials (
		config_id  TEXT NOT NULL REFERENCES sample_sets(config_id),
		seq        INTEGER NOT NULL,
		started    TEXT NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		success    INTEGER NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		detail     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (config_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		config_id TEXT PRIMARY KEY REFERENCES sample_sets(config_id),
		count     INTEGER NOT NULL,
		failures  INTEGER NOT NULL,
		mean_ns   INTEGER NOT NULL,
		median_ns INTEGER NOT NULL,
		stddev_ns INTEGER NOT NULL,
		min_ns    INTEGER NOT NULL,
		max_ns    INTEGER NOT NULL,
		p95_ns    INTEGER NOT NULL,
		p99_ns    INTEGER NOT NULL
	)`,
}

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveRun(ctx context.Context, res *runner.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, target, started, finished) VALUES (?, ?, ?, ?)`,
		res.RunID, res.Target,
		res.Started.UTC().Format(time.RFC3339Nano),
		res.Finished.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for pos, gr := range res.Groups {
		set := gr.Set
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sample_sets (config_id, run_id, kx_group, state, status, trials, failures, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			set.ConfigID(), res.RunID, set.Group(), set.State().String(), gr.Status.String(),
			set.Len(), set.FailureCount(), pos)
		if err != nil {
			return fmt.Errorf("insert sample set: %w", err)
		}

		for seq, tr := range set.Trials() {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO trials (config_id, seq, started, elapsed_ns, success, reason, detail)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				set.ConfigID(), seq, tr.Start.UTC().Format(time.RFC3339Nano),
				int64(tr.Elapsed), boolToInt(tr.Outcome.Success),
				failureReason(tr), tr.Outcome.Detail)
			if err != nil {
				return fmt.Errorf("insert trial: %w", err)
			}
		}

		if set.SuccessCount() > 0 {
			sum := stats.Summarize(set)
			_, err = tx.ExecContext(ctx,
				`INSERT INTO summaries (config_id, count, failures, mean_ns, median_ns, stddev_ns, min_ns, max_ns, p95_ns, p99_ns)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				set.ConfigID(), sum.Count, sum.FailureCount,
				int64(sum.Mean), int64(sum.Median), int64(sum.StdDev),
				int64(sum.Min), int64(sum.Max),
				int64(sum.Percentile(95)), int64(sum.Percentile(99)))
			if err != nil {
				return fmt.Errorf("insert summary: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	return scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, target, started, finished FROM runs WHERE id = ?`, id))
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, started, finished FROM runs ORDER BY started DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var runs []*RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Target, &started, &finished); err != nil {
			return nil, err
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ListSampleSets(ctx context.Context, runID string) ([]*SampleSetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config_id, run_id, kx_group, state, status, trials, failures
		 FROM sample_sets WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var sets []*SampleSetRecord
	for rows.Next() {
		var r SampleSetRecord
		if err := rows.Scan(&r.ConfigID, &r.RunID, &r.Group, &r.State, &r.Status, &r.Trials, &r.Failures); err != nil {
			return nil, err
		}
		sets = append(sets, &r)
	}
	return sets, rows.Err()
}

func (s *SQLiteStore) ListTrials(ctx context.Context, configID string) ([]sample.Trial, error) {
	var group string
	err := s.db.QueryRowContext(ctx,
		`SELECT kx_group FROM sample_sets WHERE config_id = ?`, configID).Scan(&group)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT started, elapsed_ns, success, reason, detail
		 FROM trials WHERE config_id = ? ORDER BY seq`, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var trials []sample.Trial
	for rows.Next() {
		var (
			started   string
			elapsed   int64
			successIn int
			reason    string
			detail    string
		)
		if err := rows.Scan(&started, &elapsed, &successIn, &reason, &detail); err != nil {
			return nil, err
		}
		tr := sample.Trial{
			ConfigID: configID,
			Group:    group,
			Elapsed:  time.Duration(elapsed),
			Outcome: sample.Outcome{
				Success: successIn != 0,
				Reason:  parseReason(reason),
				Detail:  detail,
			},
		}
		tr.Start, _ = time.Parse(time.RFC3339Nano, started)
		trials = append(trials, tr)
	}
	return trials, rows.Err()
}

func (s *SQLiteStore) GetSummary(ctx context.Context, configID string) (*SummaryRecord, error) {
	var (
		r                                   SummaryRecord
		mean, median, stddev, mn, mx, p, pp int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT config_id, count, failures, mean_ns, median_ns, stddev_ns, min_ns, max_ns, p95_ns, p99_ns
		 FROM summaries WHERE config_id = ?`, configID).
		Scan(&r.ConfigID, &r.Count, &r.Failures, &mean, &median, &stddev, &mn, &mx, &p, &pp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.Mean = time.Duration(mean)
	r.Median = time.Duration(median)
	r.StdDev = time.Duration(stddev)
	r.Min = time.Duration(mn)
	r.Max = time.Duration(mx)
	r.P95 = time.Duration(p)
	r.P99 = time.Duration(pp)
	return &r, nil
}

func scanRun(row *sql.Row) (*RunRecord, error) {
	var r RunRecord
	var started, finished string
	if err := row.Scan(&r.ID, &r.Target, &started, &finished); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.Started, _ = time.Parse(time.RFC3339Nano, started)
	r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func failureReason(tr sample.Trial) string {
	if tr.Outcome.Success {
		return ""
	}
	return tr.Outcome.Reason.String()
}

// parseReason maps a stored reason name back to its enum value. Unknown
// names (from a newer schema) degrade to ReasonOther.
func parseReason(name string) sample.FailureReason {
	switch name {
	case "":
		return sample.ReasonNone
	case "refused":
		return sample.ReasonRefused
	case "timeout":
		return sample.ReasonTimeout
	case "group_rejected":
		return sample.ReasonGroupRejected
	case "tls_alert":
		return sample.ReasonTLSAlert
	default:
		return sample.ReasonOther
	}
}

var _ Store = (*SQLiteStore)(nil)
