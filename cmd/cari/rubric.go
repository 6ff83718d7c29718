package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seifb13/tlsbench/internal/harness/loader"
	"github.com/seifb13/tlsbench/pkg/cari"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric [assessment.yaml]",
	Short: "Show the rubric criteria and weights",
	Long: "Print the criteria and weights of the built-in rubric, or of the " +
		"rubric declared in the given assessment file.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRubric,
}

func init() {
	rootCmd.AddCommand(rubricCmd)
}

func runRubric(cmd *cobra.Command, args []string) error {
	rubric := cari.DefaultRubric()
	if len(args) == 1 {
		assessment, err := loader.LoadAssessment(args[0])
		if err != nil {
			return err
		}
		rubric, err = assessment.BuildRubric()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "%-28s %-42s %s\n", "ID", "LABEL", "WEIGHT")
	for _, c := range rubric.Criteria() {
		fmt.Fprintf(os.Stdout, "%-28s %-42s %.2f\n", c.ID, c.Label, c.Weight)
	}
	return nil
}
