package sample

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a SampleSet.
type State int

const (
	// Empty means no trials have been recorded yet.
	Empty State = iota
	// Collecting means a measurement run is appending trials.
	Collecting
	// Complete means the run finished normally; the set is immutable.
	Complete
	// Aborted means the run stopped early (failure threshold or cancel);
	// the set is immutable and its result is inconclusive.
	Aborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Set lifecycle errors.
var (
	ErrSetSealed   = errors.New("sample set is sealed")
	ErrSetMismatch = errors.New("trial does not match sample set configuration")
)

// Set is the ordered record of trials for one (configuration, group) pair.
// Insertion order is temporal order of measurement. A Set is owned by a
// single collector until sealed; once Complete or Aborted it never changes
// and may be read concurrently without synchronization.
type Set struct {
	configID string
	group    string
	state    State
	trials   []Trial
	failures int
}

// NewSet creates an empty Set for the given group with a fresh configuration ID.
func NewSet(group string) *Set {
	return &Set{
		configID: uuid.New().String(),
		group:    group,
		state:    Empty,
	}
}

// ConfigID returns the configuration identifier shared by all trials.
func (s *Set) ConfigID() string { return s.configID }

// Group returns the key-exchange group shared by all trials.
func (s *Set) Group() string { return s.group }

// State returns the current lifecycle state.
func (s *Set) State() State { return s.state }

// Append records a trial. It fails if the set is sealed or the trial's
// ConfigID/Group do not match the set.
func (s *Set) Append(t Trial) error {
	if s.state == Complete || s.state == Aborted {
		return fmt.Errorf("%w (%s)", ErrSetSealed, s.state)
	}
	if t.ConfigID != s.configID || t.Group != s.group {
		return fmt.Errorf("%w: got (%s, %s), want (%s, %s)",
			ErrSetMismatch, t.ConfigID, t.Group, s.configID, s.group)
	}
	s.trials = append(s.trials, t)
	if !t.Outcome.Success {
		s.failures++
	}
	s.state = Collecting
	return nil
}

// Seal marks the set Complete. Sealing an already-sealed set is an error.
func (s *Set) Seal() error {
	return s.transition(Complete)
}

// Abort marks the set Aborted, preserving collected trials for audit.
func (s *Set) Abort() error {
	return s.transition(Aborted)
}

func (s *Set) transition(to State) error {
	if s.state == Complete || s.state == Aborted {
		return fmt.Errorf("%w: cannot transition %s -> %s", ErrSetSealed, s.state, to)
	}
	s.state = to
	return nil
}

// Len returns the total number of recorded trials, failures included.
func (s *Set) Len() int { return len(s.trials) }

// FailureCount returns the number of failed trials.
func (s *Set) FailureCount() int { return s.failures }

// SuccessCount returns the number of successful trials.
func (s *Set) SuccessCount() int { return len(s.trials) - s.failures }

// Trial returns the i-th trial in temporal order.
func (s *Set) Trial(i int) Trial { return s.trials[i] }

// Trials returns a copy of all trials in temporal order.
func (s *Set) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Latencies returns the elapsed durations of successful trials in temporal
// order. Failed trials contribute nothing.
func (s *Set) Latencies() []time.Duration {
	out := make([]time.Duration, 0, s.SuccessCount())
	for _, t := range s.trials {
		if t.Outcome.Success {
			out = append(out, t.Elapsed)
		}
	}
	return out
}
