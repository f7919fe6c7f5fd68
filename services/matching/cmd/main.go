package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "skillmatch",
	Short:        "Match resumes against a catalog of job postings",
	SilenceUsage: true,
	Long: `skillmatch serves /search and /analyze over a catalog of job postings
whose embeddings are cached in a local parquet file.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
