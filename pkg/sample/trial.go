// Package sample defines the immutable trial record and the SampleSet
// collection that holds the ordered trials of one benchmark configuration.
package sample

import (
	"fmt"
	"time"
)

// FailureReason classifies why a handshake trial failed.
type FailureReason int

const (
	// ReasonNone means the trial succeeded.
	ReasonNone FailureReason = iota
	// ReasonRefused means the TCP connection was refused or unreachable.
	ReasonRefused
	// ReasonTimeout means the trial exceeded its timeout.
	ReasonTimeout
	// ReasonGroupRejected means the peer rejected the requested key-exchange group.
	ReasonGroupRejected
	// ReasonTLSAlert means the peer sent a TLS alert during the handshake.
	ReasonTLSAlert
	// ReasonOther covers failures that fit no specific category.
	ReasonOther
)

// String returns the reason name.
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRefused:
		return "refused"
	case ReasonTimeout:
		return "timeout"
	case ReasonGroupRejected:
		return "group_rejected"
	case ReasonTLSAlert:
		return "tls_alert"
	case ReasonOther:
		return "other"
	default:
		return "unknown"
	}
}

// Outcome records whether a trial succeeded, and why not if it failed.
type Outcome struct {
	// Success is true when the handshake completed.
	Success bool

	// Reason classifies the failure. ReasonNone on success.
	Reason FailureReason

	// Detail is the underlying error text, preserved for diagnostics.
	Detail string
}

// Succeeded returns a success outcome.
func Succeeded() Outcome {
	return Outcome{Success: true}
}

// Failed returns a failure outcome with the given reason and detail.
func Failed(reason FailureReason, detail string) Outcome {
	return Outcome{Reason: reason, Detail: detail}
}

// String returns a short description of the outcome.
func (o Outcome) String() string {
	if o.Success {
		return "success"
	}
	if o.Detail == "" {
		return fmt.Sprintf("failure(%s)", o.Reason)
	}
	return fmt.Sprintf("failure(%s: %s)", o.Reason, o.Detail)
}

// Trial is the record of one TLS handshake attempt. Trials are immutable
// once created; re-measurement produces a new Trial.
type Trial struct {
	// ConfigID identifies the configuration this trial belongs to.
	ConfigID string

	// Group is the key-exchange group requested in the ClientHello.
	Group string

	// Start is when the connection attempt began.
	Start time.Time

	// Elapsed is connection-open to handshake-complete. Zero on failure.
	// Stored at the clock's native resolution; rounding happens only in
	// reporters.
	Elapsed time.Duration

	// Outcome records success or the classified failure.
	Outcome Outcome
}
