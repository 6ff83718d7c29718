package stats

import (
	"math"
	"sort"
	"time"

	"github.com/seifb13/tlsbench/pkg/sample"
)

// DefaultAlpha is the fixed significance level for comparisons.
const DefaultAlpha = 0.05

// Verdict is the outcome of a two-sample comparison.
type Verdict int

const (
	// NotSignificant means the observed difference is compatible with the
	// null hypothesis of no true difference.
	NotSignificant Verdict = iota
	// Significant means the difference is unlikely under the null
	// hypothesis at the comparison's alpha.
	Significant
	// Inconclusive means the comparison could not be made (a degenerate or
	// aborted side). Downstream consumers must not read it as "no change".
	Inconclusive
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case NotSignificant:
		return "not_significant"
	case Significant:
		return "significant"
	case Inconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Comparison is the result of comparing a candidate sample set against a
// baseline. PValue is carried so downstream reporting never recomputes it.
type Comparison struct {
	// BaselineGroup and CandidateGroup name the compared configurations.
	BaselineGroup  string
	CandidateGroup string

	// DeltaMean is candidate mean minus baseline mean.
	DeltaMean time.Duration

	// DeltaPercent is DeltaMean relative to the baseline mean, in percent.
	DeltaPercent float64

	// PValue is the two-sided Mann-Whitney p-value. NaN when Inconclusive.
	PValue float64

	// Alpha is the significance level the verdict was taken at.
	Alpha float64

	// Verdict states whether the difference is significant.
	Verdict Verdict
}

// Compare runs a two-sided Mann-Whitney U test (normal approximation with
// tie and continuity correction) of candidate against baseline at
// DefaultAlpha. Latency distributions are right-skewed, so a rank-based
// test is used rather than a t-test.
//
// The comparison is Inconclusive when either set was aborted or has no
// successful trials.
func Compare(baseline, candidate *sample.Set) Comparison {
	c := Comparison{
		BaselineGroup:  baseline.Group(),
		CandidateGroup: candidate.Group(),
		Alpha:          DefaultAlpha,
		PValue:         math.NaN(),
		Verdict:        Inconclusive,
	}

	if baseline.State() == sample.Aborted || candidate.State() == sample.Aborted {
		return c
	}

	base := baseline.Latencies()
	cand := candidate.Latencies()
	if len(base) == 0 || len(cand) == 0 {
		return c
	}

	baseMean := meanOf(base)
	candMean := meanOf(cand)
	c.DeltaMean = time.Duration(math.Round(candMean - baseMean))
	if baseMean != 0 {
		c.DeltaPercent = 100 * (candMean - baseMean) / baseMean
	}

	c.PValue = mannWhitneyP(base, cand)
	if c.PValue < c.Alpha {
		c.Verdict = Significant
	} else {
		c.Verdict = NotSignificant
	}
	return c
}

func meanOf(ds []time.Duration) float64 {
	var sum float64
	for _, d := range ds {
		sum += float64(d)
	}
	return sum / float64(len(ds))
}

// mannWhitneyP computes the two-sided p-value of the Mann-Whitney U test
// using the normal approximation. Tied values receive averaged ranks and
// the variance carries the standard tie correction; a 0.5 continuity
// correction is applied.
func mannWhitneyP(a, b []time.Duration) float64 {
	n1 := len(a)
	n2 := len(b)
	n := n1 + n2

	type obs struct {
		v     float64
		first bool // belongs to sample a
	}
	all := make([]obs, 0, n)
	for _, d := range a {
		all = append(all, obs{v: float64(d), first: true})
	}
	for _, d := range b {
		all = append(all, obs{v: float64(d)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	// Assign ranks, averaging ties, and accumulate the tie correction
	// term sum(t^3 - t) over tie groups.
	var rankSumA float64
	var tieTerm float64
	for i := 0; i < n; {
		j := i
		for j < n && all[j].v == all[i].v {
			j++
		}
		t := j - i
		// Average of ranks i+1 .. j (1-based).
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].first {
				rankSumA += avgRank
			}
		}
		if t > 1 {
			ft := float64(t)
			tieTerm += ft*ft*ft - ft
		}
		i = j
	}

	u1 := rankSumA - float64(n1)*float64(n1+1)/2
	u2 := float64(n1)*float64(n2) - u1
	u := math.Min(u1, u2)

	mu := float64(n1) * float64(n2) / 2
	fn := float64(n)
	variance := float64(n1) * float64(n2) / 12 * ((fn + 1) - tieTerm/(fn*(fn-1)))
	if variance <= 0 {
		// Every observation identical: no evidence of difference.
		return 1
	}

	// Continuity correction pulls the statistic half a rank toward the
	// mean; u <= mu by construction.
	z := (u - mu + 0.5) / math.Sqrt(variance)
	if z > 0 {
		z = 0
	}

	// Two-sided: p = 2 * P(Z <= z) for z <= 0.
	p := math.Erfc(-z / math.Sqrt2)
	if p > 1 {
		p = 1
	}
	return p
}
