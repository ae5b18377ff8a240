/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for datagrub-cli
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	orgID        string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "datagrub-cli",
	Short: "DataGrub CLI - evaluation and comparison management",
	Long: `DataGrub CLI provides commands for inspecting the evaluation catalog,
running evaluations against traces, and judging paired comparisons.

Examples:
  # List registered adapters and their availability
  datagrub-cli adapters

  # List the evaluation catalog
  datagrub-cli catalog list

  # Run evaluations against a trace
  datagrub-cli evaluate <trace-id> --evals exact-match,contains

  # Compare two analyses with the LLM judge
  datagrub-cli compare <analysis-a-id> <analysis-b-id>
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("DATAGRUB_URL", "http://localhost:8080"), "DataGrub API URL")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", getEnvOrDefault("DATAGRUB_ORG_ID", ""), "Organization ID (required)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(adaptersCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(comparisonsCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
