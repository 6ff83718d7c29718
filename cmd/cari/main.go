// Command cari computes the Crypto-Agility Readiness Index: a weighted
// composite score of organizational readiness for the post-quantum
// migration, evaluated per respondent profile against a criteria rubric.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cari",
	Short: "Crypto-Agility Readiness Index scoring",
	Long: "cari evaluates respondent profiles against a weighted criteria rubric " +
		"and ranks them by composite readiness score.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
