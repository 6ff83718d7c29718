package tlslog

import (
	"time"
)

// Event is one record in the trial log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the campaign run (UUID).
	RunID string `cbor:"2,keyasint"`

	// ConfigID identifies the sample set the event belongs to, if any.
	ConfigID string `cbor:"3,keyasint,omitempty"`

	// Group is the key-exchange group under measurement, if any.
	Group string `cbor:"4,keyasint,omitempty"`

	// Target is the endpoint under test (host:port).
	Target string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	Trial    *TrialEvent    `cbor:"6,keyasint,omitempty"`
	Campaign *CampaignEvent `cbor:"7,keyasint,omitempty"`
	Error    *ErrorEvent    `cbor:"8,keyasint,omitempty"`
}

// Phase distinguishes warm-up trials from measured trials.
type Phase uint8

const (
	// PhaseWarmup trials are discarded from the measured sample set.
	PhaseWarmup Phase = 0
	// PhaseMeasured trials enter the sample set.
	PhaseMeasured Phase = 1
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseMeasured:
		return "measured"
	default:
		return "unknown"
	}
}

// TrialEvent records a single handshake trial.
type TrialEvent struct {
	// Seq is the trial's sequence number within its phase (0-based).
	Seq int `cbor:"1,keyasint"`

	// Phase is warmup or measured.
	Phase Phase `cbor:"2,keyasint"`

	// Success indicates whether the handshake completed.
	Success bool `cbor:"3,keyasint"`

	// Elapsed is the measured handshake latency. Zero on failure.
	Elapsed time.Duration `cbor:"4,keyasint,omitempty"`

	// Reason is the failure classification name, empty on success.
	Reason string `cbor:"5,keyasint,omitempty"`

	// Detail is the underlying failure text, empty on success.
	Detail string `cbor:"6,keyasint,omitempty"`
}

// CampaignEvent records a campaign or configuration state change.
type CampaignEvent struct {
	// OldState and NewState are sample set state names.
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason explains the transition (e.g. failure threshold breached).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEvent records an error outside the per-trial taxonomy.
type ErrorEvent struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`
}
