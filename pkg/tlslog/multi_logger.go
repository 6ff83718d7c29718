package tlslog

// MultiLogger fans each event out to every wrapped logger in order.
// The benchmark CLI uses it to mirror the on-disk trial log to stderr.
type MultiLogger struct {
	out []Logger
}

// NewMultiLogger wraps the given loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.out = append(m.out, l)
		}
	}
	return m
}

func (m *MultiLogger) Log(event Event) {
	for _, l := range m.out {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
