package tlsbench_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifb13/tlsbench/internal/harness/loader"
	"github.com/seifb13/tlsbench/internal/harness/reporter"
	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/internal/store"
	"github.com/seifb13/tlsbench/pkg/handshake"
	"github.com/seifb13/tlsbench/pkg/sample"
	"github.com/seifb13/tlsbench/pkg/tlslog"
)

// startBenchServer runs a loopback TLS 1.3 server that accepts both the
// classical and the hybrid group, completes handshakes, and closes.
func startBenchServer(t *testing.T) (addr string, pool *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "bench-server"},
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(1 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	parsed, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	pool = x509.NewCertPool()
	pool.AddCert(parsed)

	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{{Certificate: [][]byte{certDER}, PrivateKey: key}},
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				if tc, ok := c.(*tls.Conn); ok {
					_ = tc.Handshake()
				}
				c.Close()
			}(conn)
		}
	}()

	return ln.Addr().String(), pool
}

// TestE2E_Campaign runs a small classical-versus-hybrid campaign against a
// loopback server, end to end: driver, runner, trial log, summary,
// comparison, and SQLite persistence.
func TestE2E_Campaign(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	addr, pool := startBenchServer(t)

	driver, err := handshake.NewTLSDriver(handshake.Config{
		Target:  addr,
		RootCAs: pool,
		Timeout: 3 * time.Second,
	})
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "run.tlog")
	trialLogger, err := tlslog.NewFileLogger(logPath)
	require.NoError(t, err)

	campaign, err := runner.New(driver, runner.Config{
		Target:      addr,
		Pause:       10 * time.Millisecond,
		TrialLogger: trialLogger,
		Groups: []runner.GroupConfig{
			{Group: "X25519", Iterations: 25, Warmup: 5, Timeout: 3 * time.Second},
			{Group: "X25519MLKEM768", Iterations: 25, Warmup: 5, Timeout: 3 * time.Second},
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := campaign.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, trialLogger.Close())
	require.Len(t, result.Groups, 2)

	for _, gr := range result.Groups {
		assert.Equal(t, runner.StatusCompleted, gr.Status)
		assert.Equal(t, sample.Complete, gr.Set.State())
		assert.Equal(t, 25, gr.Set.Len())
		assert.False(t, gr.Inconclusive(), "group %s had %d failures",
			gr.Set.Group(), gr.Set.FailureCount())
	}

	// Report building works over live data.
	report := reporter.BuildCampaignReport(result)
	require.Len(t, report.Comparisons, 1)
	assert.Equal(t, "X25519", report.Comparisons[0].BaselineGroup)
	assert.Equal(t, "X25519MLKEM768", report.Comparisons[0].CandidateGroup)

	// The trial log holds warmup and measured events for both groups.
	reader, err := tlslog.NewFilteredReader(logPath, tlslog.Filter{RunID: result.RunID})
	require.NoError(t, err)
	defer reader.Close()
	events := 0
	for {
		_, err := reader.Next()
		if err != nil {
			break
		}
		events++
	}
	// 2 groups x (5 warmup + 25 measured) trials + 2 state transitions.
	assert.Equal(t, 62, events)

	// Persist and read back.
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bench.db"))
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.SaveRun(ctx, result))
	run, err := st.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, addr, run.Target)

	sets, err := st.ListSampleSets(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, 25, sets[0].Trials)
}

// TestE2E_PlanDriven exercises the YAML plan path the CLI uses.
func TestE2E_PlanDriven(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	addr, _ := startBenchServer(t)

	plan, err := loader.ParsePlan([]byte(`
target: ` + addr + `
driver:
  kind: tls
  insecure: true
pause: 10ms
groups:
  - group: X25519
    iterations: 10
    warmup: 2
    timeout: 3s
`))
	require.NoError(t, err)

	cfg, err := plan.RunnerConfig()
	require.NoError(t, err)
	driver, err := plan.BuildDriver()
	require.NoError(t, err)

	campaign, err := runner.New(driver, cfg)
	require.NoError(t, err)

	result, err := campaign.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 10, result.Groups[0].Set.Len())
	assert.Zero(t, result.Groups[0].Set.FailureCount())
}
