package tlslog

import (
	"bufio"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends CBOR-encoded trial events to a file. A single
// mutex serializes writers; the campaign loop emits one event per trial
// so contention is negligible.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *cbor.Encoder
	done bool
}

// NewFileLogger opens path for appending, creating it if needed.
// Events from earlier runs in the same file remain readable; run IDs
// keep them apart.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{file: f, buf: buf, enc: NewEncoder(buf)}, nil
}

// Log appends one event. Encoding errors are dropped: the log is a
// side channel and must never abort a measurement in progress.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	_ = l.enc.Encode(event)
}

// Close flushes buffered events and closes the file. Further Log calls
// are ignored. Close is idempotent.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}
	l.done = true
	flushErr := l.buf.Flush()
	if err := l.file.Close(); err != nil {
		return err
	}
	return flushErr
}

var _ Logger = (*FileLogger)(nil)
