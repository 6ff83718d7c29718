package runner

import (
	"context"
	"time"

	"github.com/seifb13/tlsbench/pkg/handshake"
	"github.com/seifb13/tlsbench/pkg/sample"
)

// RetryPolicy wraps a handshake driver and retries trials that failed for
// transient infrastructure reasons (connection refused, timeout) with
// exponential backoff. Negotiation failures (group rejected, TLS alert) are
// never retried: the endpoint gave a definitive answer.
//
// Each attempt is timed from scratch; the returned Result carries only the
// final attempt's timing, never an accumulation across attempts.
type RetryPolicy struct {
	// Driver performs the underlying trials.
	Driver handshake.Driver

	// MaxAttempts is the total number of attempts per trial, including the
	// first. Zero or one disables retries.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles per
	// attempt. Defaults to 50ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Defaults to 1s.
	MaxDelay time.Duration
}

// Perform implements handshake.Driver.
func (p *RetryPolicy) Perform(ctx context.Context, group string) handshake.Result {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base == 0 {
		base = 50 * time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay == 0 {
		maxDelay = time.Second
	}

	var res handshake.Result
	for attempt := 0; attempt < attempts; attempt++ {
		res = p.Driver.Perform(ctx, group)
		if res.Outcome.Success || !retryable(res.Outcome.Reason) {
			return res
		}
		if attempt == attempts-1 {
			break
		}

		delay := base << uint(attempt)
		if delay > maxDelay {
			delay = maxDelay
		}
		if err := contextSleep(ctx, delay); err != nil {
			return res
		}
	}
	return res
}

// retryable reports whether a failure reason indicates a transient
// infrastructure problem rather than a definitive negotiation outcome.
func retryable(reason sample.FailureReason) bool {
	switch reason {
	case sample.ReasonRefused, sample.ReasonTimeout:
		return true
	default:
		return false
	}
}

var _ handshake.Driver = (*RetryPolicy)(nil)
