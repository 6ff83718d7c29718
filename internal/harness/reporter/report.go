// Package reporter provides campaign result formatting and output.
//
// All rounding happens here, at presentation time; the measurement and
// statistics layers carry full nanosecond resolution.
package reporter

import (
	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/pkg/handshake"
	"github.com/seifb13/tlsbench/pkg/stats"
)

// AcceptableOverheadPercent is the mean-latency overhead below which a
// hybrid group is considered deployable without performance concern.
const AcceptableOverheadPercent = 5.0

// GroupReport is the presentable result of one measured configuration.
type GroupReport struct {
	Group          string
	Class          string
	Status         string
	Trials         int
	Failures       int
	Inconclusive   bool
	FailureReasons map[string]int
	Summary        stats.Summary
}

// CampaignReport is the presentable result of a campaign run: one entry
// per configuration plus classical-versus-hybrid comparisons.
type CampaignReport struct {
	RunID       string
	Target      string
	Duration    string
	Groups      []GroupReport
	Comparisons []stats.Comparison
}

// BuildCampaignReport summarizes a campaign result and compares every
// classical group against every hybrid group, classical as baseline.
func BuildCampaignReport(res *runner.Result) *CampaignReport {
	report := &CampaignReport{
		RunID:    res.RunID,
		Target:   res.Target,
		Duration: res.Finished.Sub(res.Started).String(),
	}

	for _, gr := range res.Groups {
		g := GroupReport{
			Group:        gr.Set.Group(),
			Status:       gr.Status.String(),
			Trials:       gr.Set.Len(),
			Failures:     gr.Set.FailureCount(),
			Inconclusive: gr.Inconclusive(),
			Summary:      stats.Summarize(gr.Set),
		}
		if grp, err := handshake.LookupGroup(g.Group); err == nil {
			g.Class = grp.Class.String()
		}
		if g.Failures > 0 {
			g.FailureReasons = make(map[string]int)
			for _, tr := range gr.Set.Trials() {
				if !tr.Outcome.Success {
					g.FailureReasons[tr.Outcome.Reason.String()]++
				}
			}
		}
		report.Groups = append(report.Groups, g)
	}

	for _, base := range res.Groups {
		bg, err := handshake.LookupGroup(base.Set.Group())
		if err != nil || bg.Class != handshake.Classical {
			continue
		}
		for _, cand := range res.Groups {
			cg, err := handshake.LookupGroup(cand.Set.Group())
			if err != nil || cg.Class != handshake.Hybrid {
				continue
			}
			report.Comparisons = append(report.Comparisons, stats.Compare(base.Set, cand.Set))
		}
	}

	return report
}
