package handshake

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/seifb13/tlsbench/pkg/sample"
)

// ExecConfig configures an ExecDriver.
type ExecConfig struct {
	// Target is the endpoint under test (host:port).
	Target string

	// OpenSSLPath is the s_client binary. Empty means auto-detect.
	OpenSSLPath string

	// BaseDir points at an OpenSSL installation carrying the OQS provider.
	// When set, LD_LIBRARY_PATH, OPENSSL_CONF and OPENSSL_MODULES are
	// derived from it so hybrid groups resolve.
	BaseDir string

	// Timeout bounds each trial, process startup included.
	// Defaults to DefaultTimeout.
	Timeout time.Duration
}

// ExecDriver performs handshakes by shelling out to openssl s_client.
// It reaches groups the embedded stack cannot negotiate (OQS provider
// groups), at the cost of including process startup in the measured
// interval. Compare exec-driver samples only against other exec-driver
// samples.
type ExecDriver struct {
	target  string
	path    string
	timeout time.Duration
	env     []string
}

// opensslSearchPaths are tried in order when no path is configured.
var opensslSearchPaths = []string{
	"~/ossl-3.5/bin/openssl",
	"/usr/local/bin/openssl",
	"/usr/bin/openssl",
}

// NewExecDriver creates an exec driver, locating openssl if no path is given.
func NewExecDriver(cfg ExecConfig) (*ExecDriver, error) {
	if cfg.Target == "" {
		return nil, errors.New("exec driver: target is required")
	}
	path := cfg.OpenSSLPath
	if path == "" {
		var err error
		path, err = findOpenSSL()
		if err != nil {
			return nil, err
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	env := os.Environ()
	if cfg.BaseDir != "" {
		env = append(env,
			"LD_LIBRARY_PATH="+filepath.Join(cfg.BaseDir, "lib64"),
			"OPENSSL_CONF="+filepath.Join(cfg.BaseDir, "ssl", "openssl.cnf"),
			"OPENSSL_MODULES="+filepath.Join(cfg.BaseDir, "lib64", "ossl-modules"),
		)
	}

	return &ExecDriver{
		target:  cfg.Target,
		path:    path,
		timeout: timeout,
		env:     env,
	}, nil
}

func findOpenSSL() (string, error) {
	home, _ := os.UserHomeDir()
	for _, p := range opensslSearchPaths {
		if strings.HasPrefix(p, "~/") && home != "" {
			p = filepath.Join(home, p[2:])
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("openssl binary not found; set OpenSSLPath")
}

// Perform runs one s_client handshake and measures process start to exit.
// Stdin is closed immediately so s_client disconnects right after the
// handshake completes.
func (d *ExecDriver) Perform(ctx context.Context, groupName string) Result {
	if _, err := LookupGroup(groupName); err != nil {
		return Result{Start: time.Now(), Outcome: sample.Failed(sample.ReasonGroupRejected, err.Error())}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.path, "s_client",
		"-connect", d.target,
		"-groups", groupName,
		"-brief",
		"-tls1_3",
	)
	cmd.Env = d.env
	cmd.Stdin = bytes.NewReader(nil)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		reason, detail := classifyExecError(ctx, err, stderr.String())
		return Result{Start: start, Outcome: sample.Failed(reason, detail)}
	}

	return Result{Start: start, Elapsed: elapsed, Outcome: sample.Succeeded()}
}

// classifyExecError maps an s_client failure to the failure taxonomy using
// the exit condition and stderr content.
func classifyExecError(ctx context.Context, err error, stderr string) (sample.FailureReason, string) {
	if ctx.Err() == context.DeadlineExceeded {
		return sample.ReasonTimeout, "s_client timed out"
	}

	detail := err.Error()
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		// Keep the first stderr line; s_client errors are one-liners
		// followed by connection dumps.
		detail = strings.SplitN(trimmed, "\n", 2)[0]
	}

	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "refused"), strings.Contains(lower, "unable to connect"),
		strings.Contains(lower, "connect:errno"):
		return sample.ReasonRefused, detail
	case strings.Contains(lower, "no suitable key share"),
		strings.Contains(lower, "unsupported group"),
		strings.Contains(lower, "group not"),
		strings.Contains(lower, "handshake failure"):
		return sample.ReasonGroupRejected, detail
	case strings.Contains(lower, "alert"):
		return sample.ReasonTLSAlert, detail
	default:
		return sample.ReasonOther, detail
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Driver = (*TLSDriver)(nil)
	_ Driver = (*ExecDriver)(nil)
)
