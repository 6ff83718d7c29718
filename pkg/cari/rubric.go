// Package cari implements the Crypto-Agility Readiness Index: a composite,
// weighted maturity score over a fixed rubric of criteria, with validated
// per-profile evaluation and deterministic multi-profile ranking.
package cari

import (
	"fmt"
	"math"
)

// WeightTolerance is the permitted deviation of the rubric weight sum from 1.0.
const WeightTolerance = 1e-6

// ValidationError reports a malformed rubric or score input. It is fatal to
// the operation that produced it; scores are never coerced or clamped.
type ValidationError struct {
	// Field names the offending criterion or input field.
	Field string

	// Message describes the violation.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "cari: " + e.Message
	}
	return fmt.Sprintf("cari: %s: %s", e.Field, e.Message)
}

// Criterion is one weighted rubric entry.
type Criterion struct {
	// ID uniquely identifies the criterion within its rubric.
	ID string

	// Label is the human-readable display name.
	Label string

	// Weight is the criterion's share of the composite, in [0,1].
	// Weights across a rubric sum to 1.0.
	Weight float64
}

// Rubric is an immutable, validated set of weighted criteria. Construct one
// with NewRubric and thread it explicitly through evaluation calls; there is
// no package-level rubric state.
type Rubric struct {
	criteria []Criterion
	index    map[string]int
}

// NewRubric validates the criteria and builds a rubric. It fails with a
// *ValidationError if any weight is negative, any ID is empty or duplicated,
// or the weights do not sum to 1.0 within WeightTolerance.
func NewRubric(criteria []Criterion) (*Rubric, error) {
	if len(criteria) == 0 {
		return nil, &ValidationError{Message: "rubric has no criteria"}
	}

	index := make(map[string]int, len(criteria))
	var sum float64
	for i, c := range criteria {
		if c.ID == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("criterion %d has an empty ID", i)}
		}
		if _, dup := index[c.ID]; dup {
			return nil, &ValidationError{Field: c.ID, Message: "duplicate criterion ID"}
		}
		if c.Weight < 0 {
			return nil, &ValidationError{Field: c.ID, Message: fmt.Sprintf("negative weight %g", c.Weight)}
		}
		index[c.ID] = i
		sum += c.Weight
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return nil, &ValidationError{Message: fmt.Sprintf("weights sum to %.9f, want 1.0", sum)}
	}

	own := make([]Criterion, len(criteria))
	copy(own, criteria)
	return &Rubric{criteria: own, index: index}, nil
}

// Criteria returns the rubric's criteria in definition order.
func (r *Rubric) Criteria() []Criterion {
	out := make([]Criterion, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Len returns the number of criteria.
func (r *Rubric) Len() int { return len(r.criteria) }

// Criterion returns the criterion with the given ID.
func (r *Rubric) Criterion(id string) (Criterion, bool) {
	i, ok := r.index[id]
	if !ok {
		return Criterion{}, false
	}
	return r.criteria[i], true
}
