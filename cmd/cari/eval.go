package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seifb13/tlsbench/internal/harness/loader"
	"github.com/seifb13/tlsbench/internal/harness/reporter"
	"github.com/seifb13/tlsbench/pkg/cari"
)

var evalCmd = &cobra.Command{
	Use:   "eval <assessment.yaml>",
	Short: "Evaluate and rank profiles from an assessment file",
	Long: "Evaluate every profile in the assessment against its rubric (or the " +
		"built-in one) and print them ranked by composite score, best first.",
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().Bool("json", false, "Output results as JSON")
	evalCmd.Flags().Bool("verbose", false, "Show per-criterion contributions")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	assessment, err := loader.LoadAssessment(args[0])
	if err != nil {
		return err
	}
	rubric, err := assessment.BuildRubric()
	if err != nil {
		return err
	}

	evals := make([]*cari.Evaluation, 0, len(assessment.Profiles))
	for i := range assessment.Profiles {
		profile := &assessment.Profiles[i]
		scores, err := profile.MaturityScores()
		if err != nil {
			return err
		}
		eval, err := rubric.Evaluate(profile.Name, scores)
		if err != nil {
			return fmt.Errorf("profile %s: %w", profile.Name, err)
		}
		evals = append(evals, eval)
	}

	var rep reporter.Reporter
	if jsonOut {
		rep = reporter.NewJSONReporter(os.Stdout, verbose)
	} else {
		rep = reporter.NewTextReporter(os.Stdout, verbose)
	}
	rep.ReportRanking(evals)
	return nil
}
