package cari

import (
	"fmt"
	"sort"
)

// CriterionScore is one criterion's contribution to a profile's composite.
type CriterionScore struct {
	// CriterionID names the rubric criterion.
	CriterionID string

	// Raw is the maturity score in [0,1].
	Raw float64

	// Weight is the criterion's rubric weight.
	Weight float64

	// Contribution is Raw * Weight, retained so reports can show which
	// criteria drove the composite.
	Contribution float64
}

// Evaluation is one profile scored against a rubric. The composite is
// always derived from the criterion scores at construction; it is never
// cached across score changes because evaluations are immutable values.
type Evaluation struct {
	// Profile names the evaluated profile.
	Profile string

	// Scores holds per-criterion results in rubric order.
	Scores []CriterionScore

	// Composite is the weighted sum of raw scores, in [0,1].
	Composite float64
}

// Evaluate scores a profile against the rubric. It fails with a
// *ValidationError if any raw score is outside [0,1] or if scores is
// missing an entry for any rubric criterion. Missing criteria are never
// silently defaulted: a partial evaluation would misrepresent maturity.
// Extra entries for IDs outside the rubric are also rejected.
func (r *Rubric) Evaluate(profile string, scores map[string]float64) (*Evaluation, error) {
	for id := range scores {
		if _, ok := r.index[id]; !ok {
			return nil, &ValidationError{Field: id, Message: "score for a criterion not in the rubric"}
		}
	}

	eval := &Evaluation{
		Profile: profile,
		Scores:  make([]CriterionScore, 0, len(r.criteria)),
	}
	for _, c := range r.criteria {
		raw, ok := scores[c.ID]
		if !ok {
			return nil, &ValidationError{Field: c.ID, Message: "missing score"}
		}
		if raw < 0 || raw > 1 {
			return nil, &ValidationError{Field: c.ID, Message: fmt.Sprintf("raw score %g outside [0,1]", raw)}
		}
		contribution := raw * c.Weight
		eval.Scores = append(eval.Scores, CriterionScore{
			CriterionID:  c.ID,
			Raw:          raw,
			Weight:       c.Weight,
			Contribution: contribution,
		})
		eval.Composite += contribution
	}
	return eval, nil
}

// Band is the qualitative interpretation of a composite index.
type Band string

// Interpretation bands for composite indices.
const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandModerate  Band = "moderate"
	BandWeak      Band = "weak"
	BandCritical  Band = "critical"
)

// Band maps the composite index onto the interpretation scale used in the
// underlying survey analysis.
func (e *Evaluation) Band() Band {
	switch {
	case e.Composite >= 0.90:
		return BandExcellent
	case e.Composite >= 0.80:
		return BandGood
	case e.Composite >= 0.70:
		return BandModerate
	case e.Composite >= 0.60:
		return BandWeak
	default:
		return BandCritical
	}
}

// RankEvaluations returns the evaluations ordered by descending composite
// index. Ties break on profile name ascending so the ordering is stable and
// reproducible across runs. The input slice is not modified.
func RankEvaluations(evals []*Evaluation) []*Evaluation {
	ranked := make([]*Evaluation, len(evals))
	copy(ranked, evals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Profile < ranked[j].Profile
	})
	return ranked
}

// MaturityFromBrake converts a survey brake score (1..5, where 5 is the
// maximal brake) into a maturity score in [0,1]. Out-of-range input is a
// validation error, not clamped.
func MaturityFromBrake(brake float64) (float64, error) {
	if brake < 1 || brake > 5 {
		return 0, &ValidationError{Message: fmt.Sprintf("brake score %g outside [1,5]", brake)}
	}
	return (5 - brake) / 4, nil
}
