package tlslog

// Logger receives the per-trial event stream from a running campaign.
// Implementations must be safe for concurrent use and should return
// quickly: time spent in Log sits between handshake measurements.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The campaign runner substitutes it
// when no logger is configured, so callers never nil-check.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
