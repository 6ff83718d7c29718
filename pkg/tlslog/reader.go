package tlslog

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects a subset of a trial log. Zero-valued fields are
// wildcards. Phase and FailuresOnly apply to trial events and exclude
// other event kinds when set.
type Filter struct {
	RunID        string
	ConfigID     string
	Group        string
	Phase        *Phase
	FailuresOnly bool

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

func (f *Filter) keep(ev Event) bool {
	switch {
	case f.RunID != "" && ev.RunID != f.RunID:
		return false
	case f.ConfigID != "" && ev.ConfigID != f.ConfigID:
		return false
	case f.Group != "" && ev.Group != f.Group:
		return false
	}
	if f.Phase != nil && (ev.Trial == nil || ev.Trial.Phase != *f.Phase) {
		return false
	}
	if f.FailuresOnly && (ev.Trial == nil || ev.Trial.Success) {
		return false
	}
	if f.TimeStart != nil && ev.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !ev.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events out of a CBOR trial log without loading the
// whole file. Campaign logs run to a thousand-plus events per group.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens path and yields every event in it.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and yields only events the filter keeps.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF after the last one.
func (r *Reader) Next() (Event, error) {
	for {
		var ev Event
		if err := r.dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.keep(ev) {
			return ev, nil
		}
	}
}

func (r *Reader) Close() error {
	return r.file.Close()
}
