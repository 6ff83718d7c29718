package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/seifb13/tlsbench/pkg/cari"
	"github.com/seifb13/tlsbench/pkg/stats"
)

// Reporter formats and outputs campaign and assessment results.
type Reporter interface {
	// ReportCampaign reports a measurement campaign.
	ReportCampaign(report *CampaignReport)

	// ReportRanking reports ranked readiness evaluations.
	ReportRanking(evals []*cari.Evaluation)
}

// TextReporter outputs human-readable text reports.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{
		writer:  w,
		verbose: verbose,
	}
}

// ReportCampaign reports campaign results in text format.
func (r *TextReporter) ReportCampaign(report *CampaignReport) {
	fmt.Fprintf(r.writer, "\n=== Handshake campaign %s ===\n", report.RunID)
	fmt.Fprintf(r.writer, "Target:   %s\n", report.Target)
	fmt.Fprintf(r.writer, "Duration: %s\n", report.Duration)

	for _, g := range report.Groups {
		fmt.Fprintf(r.writer, "\n--- %s (%s) ---\n", g.Group, g.Class)
		fmt.Fprintf(r.writer, "Status:   %s\n", g.Status)
		fmt.Fprintf(r.writer, "Trials:   %d (%d failed)\n", g.Trials, g.Failures)

		if g.Inconclusive {
			fmt.Fprintf(r.writer, "Result:   inconclusive, no latency estimate\n")
		} else {
			s := g.Summary
			fmt.Fprintf(r.writer, "Mean:     %s\n", fmtDuration(s.Mean))
			fmt.Fprintf(r.writer, "Median:   %s\n", fmtDuration(s.Median))
			fmt.Fprintf(r.writer, "StdDev:   %s\n", fmtDuration(s.StdDev))
			fmt.Fprintf(r.writer, "Min/Max:  %s / %s\n", fmtDuration(s.Min), fmtDuration(s.Max))
			if r.verbose {
				for _, p := range []float64{90, 95, 99} {
					fmt.Fprintf(r.writer, "p%.0f:      %s\n", p, fmtDuration(s.Percentile(p)))
				}
			}
		}

		if r.verbose && len(g.FailureReasons) > 0 {
			for _, reason := range sortedKeys(g.FailureReasons) {
				fmt.Fprintf(r.writer, "          %s: %d\n", reason, g.FailureReasons[reason])
			}
		}
	}

	for _, c := range report.Comparisons {
		r.reportComparison(c)
	}
}

func (r *TextReporter) reportComparison(c stats.Comparison) {
	fmt.Fprintf(r.writer, "\n--- %s vs %s ---\n", c.BaselineGroup, c.CandidateGroup)

	if c.Verdict == stats.Inconclusive {
		fmt.Fprintf(r.writer, "Verdict:  inconclusive (one side has no usable samples)\n")
		return
	}

	delta := fmtDuration(c.DeltaMean)
	if c.DeltaMean >= 0 {
		delta = "+" + delta
	}
	fmt.Fprintf(r.writer, "Delta:    %s (%+.2f%%)\n", delta, c.DeltaPercent)
	fmt.Fprintf(r.writer, "p-value:  %.4f (alpha %.2f)\n", c.PValue, c.Alpha)
	fmt.Fprintf(r.writer, "Verdict:  %s\n", c.Verdict)

	switch {
	case c.Verdict == stats.NotSignificant:
		fmt.Fprintf(r.writer, "          No measurable handshake cost; %s is deployable in place of %s.\n",
			c.CandidateGroup, c.BaselineGroup)
	case c.DeltaPercent < 0:
		fmt.Fprintf(r.writer, "          %s is faster than the classical baseline.\n", c.CandidateGroup)
	case c.DeltaPercent <= AcceptableOverheadPercent:
		fmt.Fprintf(r.writer, "          Overhead is within %.0f%%; %s remains deployable.\n",
			AcceptableOverheadPercent, c.CandidateGroup)
	default:
		fmt.Fprintf(r.writer, "          Overhead exceeds %.0f%%; review before deploying %s.\n",
			AcceptableOverheadPercent, c.CandidateGroup)
	}
}

// ReportRanking reports readiness evaluations in text format, best first.
func (r *TextReporter) ReportRanking(evals []*cari.Evaluation) {
	ranked := cari.RankEvaluations(evals)

	fmt.Fprintf(r.writer, "\n=== Crypto-agility readiness ===\n")
	for i, e := range ranked {
		fmt.Fprintf(r.writer, "%d. %-24s %.4f  (%s)\n", i+1, e.Profile, e.Composite, e.Band())
		if r.verbose {
			for _, cs := range e.Scores {
				fmt.Fprintf(r.writer, "   %-28s raw %.3f  weight %.2f  contribution %.4f\n",
					cs.CriterionID, cs.Raw, cs.Weight, cs.Contribution)
			}
		}
	}
}

// JSONReporter outputs JSON-formatted reports.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: w,
		pretty: pretty,
	}
}

// JSONCampaignReport is the JSON representation of a campaign.
type JSONCampaignReport struct {
	RunID       string           `json:"run_id"`
	Target      string           `json:"target"`
	Duration    string           `json:"duration"`
	Groups      []JSONGroup      `json:"groups"`
	Comparisons []JSONComparison `json:"comparisons,omitempty"`
}

// JSONGroup is the JSON representation of one configuration's result.
// Latencies are milliseconds, rounded to microsecond precision.
type JSONGroup struct {
	Group          string         `json:"group"`
	Class          string         `json:"class"`
	Status         string         `json:"status"`
	Trials         int            `json:"trials"`
	Failures       int            `json:"failures"`
	Inconclusive   bool           `json:"inconclusive"`
	FailureReasons map[string]int `json:"failure_reasons,omitempty"`
	MeanMs         float64        `json:"mean_ms,omitempty"`
	MedianMs       float64        `json:"median_ms,omitempty"`
	StdDevMs       float64        `json:"stddev_ms,omitempty"`
	MinMs          float64        `json:"min_ms,omitempty"`
	MaxMs          float64        `json:"max_ms,omitempty"`
	P95Ms          float64        `json:"p95_ms,omitempty"`
	P99Ms          float64        `json:"p99_ms,omitempty"`
}

// JSONComparison is the JSON representation of a two-group comparison.
type JSONComparison struct {
	Baseline     string  `json:"baseline"`
	Candidate    string  `json:"candidate"`
	DeltaMeanMs  float64 `json:"delta_mean_ms"`
	DeltaPercent float64 `json:"delta_percent"`
	PValue       float64 `json:"p_value,omitempty"`
	Alpha        float64 `json:"alpha"`
	Verdict      string  `json:"verdict"`
}

// JSONEvaluation is the JSON representation of a readiness evaluation.
type JSONEvaluation struct {
	Rank      int                  `json:"rank"`
	Profile   string               `json:"profile"`
	Composite float64              `json:"composite"`
	Band      string               `json:"band"`
	Scores    []JSONCriterionScore `json:"scores"`
}

// JSONCriterionScore is the JSON representation of one criterion's score.
type JSONCriterionScore struct {
	Criterion    string  `json:"criterion"`
	Raw          float64 `json:"raw"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ReportCampaign reports campaign results in JSON format.
func (r *JSONReporter) ReportCampaign(report *CampaignReport) {
	jr := JSONCampaignReport{
		RunID:    report.RunID,
		Target:   report.Target,
		Duration: report.Duration,
		Groups:   make([]JSONGroup, 0, len(report.Groups)),
	}

	for _, g := range report.Groups {
		jg := JSONGroup{
			Group:          g.Group,
			Class:          g.Class,
			Status:         g.Status,
			Trials:         g.Trials,
			Failures:       g.Failures,
			Inconclusive:   g.Inconclusive,
			FailureReasons: g.FailureReasons,
		}
		if !g.Inconclusive {
			s := g.Summary
			jg.MeanMs = toMs(s.Mean)
			jg.MedianMs = toMs(s.Median)
			jg.StdDevMs = toMs(s.StdDev)
			jg.MinMs = toMs(s.Min)
			jg.MaxMs = toMs(s.Max)
			jg.P95Ms = toMs(s.Percentile(95))
			jg.P99Ms = toMs(s.Percentile(99))
		}
		jr.Groups = append(jr.Groups, jg)
	}

	for _, c := range report.Comparisons {
		jc := JSONComparison{
			Baseline:     c.BaselineGroup,
			Candidate:    c.CandidateGroup,
			DeltaMeanMs:  toMs(c.DeltaMean),
			DeltaPercent: round2(c.DeltaPercent),
			Alpha:        c.Alpha,
			Verdict:      c.Verdict.String(),
		}
		if !math.IsNaN(c.PValue) {
			jc.PValue = c.PValue
		}
		jr.Comparisons = append(jr.Comparisons, jc)
	}

	r.writeJSON(jr)
}

// ReportRanking reports readiness evaluations in JSON format, best first.
func (r *JSONReporter) ReportRanking(evals []*cari.Evaluation) {
	ranked := cari.RankEvaluations(evals)

	out := make([]JSONEvaluation, 0, len(ranked))
	for i, e := range ranked {
		je := JSONEvaluation{
			Rank:      i + 1,
			Profile:   e.Profile,
			Composite: e.Composite,
			Band:      string(e.Band()),
			Scores:    make([]JSONCriterionScore, 0, len(e.Scores)),
		}
		for _, cs := range e.Scores {
			je.Scores = append(je.Scores, JSONCriterionScore{
				Criterion:    cs.CriterionID,
				Raw:          cs.Raw,
				Weight:       cs.Weight,
				Contribution: cs.Contribution,
			})
		}
		out = append(out, je)
	}

	r.writeJSON(out)
}

func (r *JSONReporter) writeJSON(v any) {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		fmt.Fprintf(r.writer, `{"error": "failed to marshal: %s"}`, err)
		return
	}

	fmt.Fprintln(r.writer, string(data))
}

// toMs converts a duration to milliseconds with microsecond precision.
func toMs(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Microsecond)) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ Reporter = (*TextReporter)(nil)
	_ Reporter = (*JSONReporter)(nil)
)
