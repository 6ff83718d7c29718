// Package handshake performs single TLS 1.3 handshakes against a target
// endpoint with a forced key-exchange group, and reports precise wall-clock
// timing. Drivers never return errors for failed handshakes: failures are
// captured in the Result so a long sampling run survives individual trials.
package handshake

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/seifb13/tlsbench/pkg/sample"
)

// DefaultTimeout bounds a single trial when the caller does not set one.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of one handshake attempt. The caller attaches it to
// a sample set by constructing a sample.Trial.
type Result struct {
	// Start is when the connection attempt began.
	Start time.Time

	// Elapsed is connection-open to handshake-complete. Zero on failure.
	Elapsed time.Duration

	// Outcome records success or the classified failure.
	Outcome sample.Outcome
}

// Trial converts the result into an immutable trial for the given set.
func (r Result) Trial(configID, group string) sample.Trial {
	return sample.Trial{
		ConfigID: configID,
		Group:    group,
		Start:    r.Start,
		Elapsed:  r.Elapsed,
		Outcome:  r.Outcome,
	}
}

// Driver performs exactly one TLS 1.3 handshake per call. Implementations
// open a fresh connection, force the named key-exchange group, measure
// open-to-handshake-complete, and close the connection. They must not retry
// internally; retry is a sampling-layer policy.
type Driver interface {
	Perform(ctx context.Context, group string) Result
}

// Config configures a TLSDriver.
type Config struct {
	// Target is the endpoint under test (host:port).
	Target string

	// Timeout bounds each trial, connection open included.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	// ServerName overrides SNI. Defaults to the host part of Target.
	ServerName string

	// RootCAs verifies the server certificate. Nil uses the system pool.
	RootCAs *x509.CertPool

	// InsecureSkipVerify disables certificate verification. Benchmark
	// endpoints commonly run on self-signed certs.
	InsecureSkipVerify bool
}

// TLSDriver performs handshakes with the embedded Go TLS stack.
type TLSDriver struct {
	target     string
	timeout    time.Duration
	serverName string
	rootCAs    *x509.CertPool
	insecure   bool
}

// NewTLSDriver creates a driver for the configured endpoint.
func NewTLSDriver(cfg Config) (*TLSDriver, error) {
	host, _, err := net.SplitHostPort(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", cfg.Target, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = host
	}
	return &TLSDriver{
		target:     cfg.Target,
		timeout:    timeout,
		serverName: serverName,
		rootCAs:    cfg.RootCAs,
		insecure:   cfg.InsecureSkipVerify,
	}, nil
}

// Perform opens one connection, forces the named group, and measures
// connection-open to handshake-complete. Teardown is excluded from the
// measured interval.
func (d *TLSDriver) Perform(ctx context.Context, groupName string) Result {
	group, err := LookupGroup(groupName)
	if err != nil {
		return Result{Start: time.Now(), Outcome: sample.Failed(sample.ReasonGroupRejected, err.Error())}
	}
	if !group.Embedded() {
		return Result{
			Start: time.Now(),
			Outcome: sample.Failed(sample.ReasonGroupRejected,
				fmt.Sprintf("group %s is not supported by the embedded TLS stack; use the exec driver", group.Name)),
		}
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,
		// A single entry forces the group: the ClientHello offers
		// exactly one key share and one supported group.
		CurvePreferences:   []tls.CurveID{group.CurveID},
		ServerName:         d.serverName,
		RootCAs:            d.rootCAs,
		InsecureSkipVerify: d.insecure,
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: d.timeout},
		Config:    tlsConfig,
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// DialContext returns once the handshake is complete, so the elapsed
	// interval covers TCP connect + TLS 1.3 handshake and nothing else.
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", d.target)
	elapsed := time.Since(start)

	if err != nil {
		reason, detail := classifyDialError(err)
		return Result{Start: start, Outcome: sample.Failed(reason, detail)}
	}
	conn.Close()

	return Result{Start: start, Elapsed: elapsed, Outcome: sample.Succeeded()}
}

// classifyDialError maps a dial/handshake error to the failure taxonomy.
// Remote alerts surface from crypto/tls as "remote error: tls: <alert>"
// wrapped in a net.OpError with an unexported alert type, so alert
// classification matches on the message text.
func classifyDialError(err error) (sample.FailureReason, string) {
	detail := err.Error()

	// A handshake_failure or insufficient_security alert against a single
	// offered group means the peer rejected that group. The client side
	// reports the same condition as "server selected unsupported group".
	switch {
	case strings.Contains(detail, "handshake failure"),
		strings.Contains(detail, "insufficient security"),
		strings.Contains(detail, "unsupported group"),
		strings.Contains(detail, "no ECDHE curve"):
		return sample.ReasonGroupRejected, detail
	case strings.Contains(detail, "remote error: tls:"),
		strings.Contains(detail, "local error: tls:"),
		strings.Contains(detail, "failed to verify certificate"):
		return sample.ReasonTLSAlert, detail
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return sample.ReasonTimeout, detail
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return sample.ReasonTimeout, detail
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.ECONNRESET) {
		return sample.ReasonRefused, detail
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return sample.ReasonRefused, detail
	}

	return sample.ReasonOther, detail
}
