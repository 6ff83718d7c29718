package handshake

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seifb13/tlsbench/pkg/sample"
)

// generateServerCert creates a self-signed server cert for 127.0.0.1.
func generateServerCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
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

	pool := x509.NewCertPool()
	pool.AddCert(parsed)

	return tls.Certificate{Certificate: [][]byte{certDER}, PrivateKey: key}, pool
}

// startTLSServer runs a TLS 1.3 server on loopback that completes handshakes
// and closes. Restricting CurvePreferences lets tests force group rejection.
func startTLSServer(t *testing.T, curves []tls.CurveID) (addr string, certPool *x509.CertPool) {
	t.Helper()

	serverCert, pool := generateServerCert(t)
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{serverCert},
	}
	if curves != nil {
		cfg.CurvePreferences = curves
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
				// Drive the handshake to completion, then close.
				if tc, ok := c.(*tls.Conn); ok {
					_ = tc.Handshake()
				}
				c.Close()
			}(conn)
		}
	}()

	return ln.Addr().String(), pool
}

func TestNewTLSDriver_RejectsBadTarget(t *testing.T) {
	_, err := NewTLSDriver(Config{Target: "no-port"})
	assert.Error(t, err)
}

func TestPerform_SuccessX25519(t *testing.T) {
	addr, pool := startTLSServer(t, nil)

	d, err := NewTLSDriver(Config{Target: addr, RootCAs: pool, Timeout: 3 * time.Second})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "X25519")
	require.True(t, res.Outcome.Success, "handshake failed: %s", res.Outcome.Detail)
	assert.Positive(t, res.Elapsed)
	assert.False(t, res.Start.IsZero())
}

func TestPerform_ConnectionRefused(t *testing.T) {
	// Grab a free port and close the listener so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	d, err := NewTLSDriver(Config{Target: addr, InsecureSkipVerify: true, Timeout: 2 * time.Second})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "X25519")
	require.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonRefused, res.Outcome.Reason)
	assert.Zero(t, res.Elapsed)
}

func TestPerform_Timeout(t *testing.T) {
	// A plain TCP listener that accepts but never speaks TLS stalls the
	// handshake until the trial timeout fires.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	d, err := NewTLSDriver(Config{Target: ln.Addr().String(), InsecureSkipVerify: true, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	res := d.Perform(context.Background(), "X25519")
	require.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonTimeout, res.Outcome.Reason)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout did not bound the trial")
}

func TestPerform_GroupRejectedByServer(t *testing.T) {
	// Server only accepts P-256; client forces X25519.
	addr, pool := startTLSServer(t, []tls.CurveID{tls.CurveP256})

	d, err := NewTLSDriver(Config{Target: addr, RootCAs: pool, Timeout: 3 * time.Second})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "X25519")
	require.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonGroupRejected, res.Outcome.Reason, "detail: %s", res.Outcome.Detail)
}

func TestPerform_UnknownGroup(t *testing.T) {
	addr, pool := startTLSServer(t, nil)
	d, err := NewTLSDriver(Config{Target: addr, RootCAs: pool})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "NOT-A-GROUP")
	require.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonGroupRejected, res.Outcome.Reason)
}

func TestPerform_ExecOnlyGroupRejectedByEmbeddedStack(t *testing.T) {
	addr, pool := startTLSServer(t, nil)
	d, err := NewTLSDriver(Config{Target: addr, RootCAs: pool})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "X448")
	require.False(t, res.Outcome.Success)
	assert.Equal(t, sample.ReasonGroupRejected, res.Outcome.Reason)
}

func TestPerform_HybridGroupLoopback(t *testing.T) {
	// The Go stack negotiates X25519MLKEM768 natively, so the hybrid
	// path is measurable entirely in-process.
	addr, pool := startTLSServer(t, []tls.CurveID{tls.X25519MLKEM768})

	d, err := NewTLSDriver(Config{Target: addr, RootCAs: pool, Timeout: 3 * time.Second})
	require.NoError(t, err)

	res := d.Perform(context.Background(), "X25519MLKEM768")
	require.True(t, res.Outcome.Success, "handshake failed: %s", res.Outcome.Detail)
	assert.Positive(t, res.Elapsed)
}

func TestResultTrial_MatchesSet(t *testing.T) {
	res := Result{Start: time.Now(), Elapsed: time.Millisecond, Outcome: sample.Succeeded()}
	tr := res.Trial("cfg-1", "X25519")
	assert.Equal(t, "cfg-1", tr.ConfigID)
	assert.Equal(t, "X25519", tr.Group)
	assert.Equal(t, res.Elapsed, tr.Elapsed)
	assert.True(t, tr.Outcome.Success)
}
