/*-------------------------------------------------------------------------
 *
 * compare.go
 *    Paired comparison commands for datagrub-cli
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/cmd/compare.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/opencircle/datagrub/cli/pkg/client"
	"github.com/spf13/cobra"
)

var (
	compareCmd = &cobra.Command{
		Use:   "compare [analysis-a-id] [analysis-b-id]",
		Short: "Create a blind judge comparison between two analyses",
		Args:  cobra.ExactArgs(2),
		RunE:  createComparison,
	}

	comparisonsCmd = &cobra.Command{
		Use:   "comparisons",
		Short: "Comparison record commands",
	}

	comparisonsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List comparisons",
		RunE:  listComparisons,
	}

	comparisonsShowCmd = &cobra.Command{
		Use:   "show [comparison-id]",
		Short: "Show one comparison verdict",
		Args:  cobra.ExactArgs(1),
		RunE:  showComparison,
	}

	compareJudgeModel string
	compareCriteria   string
)

func init() {
	compareCmd.Flags().StringVar(&compareJudgeModel, "judge-model", "", "Judge model (defaults to server configuration)")
	compareCmd.Flags().StringVar(&compareCriteria, "criteria", "", "Comma-separated evaluation criteria")

	comparisonsCmd.AddCommand(comparisonsListCmd)
	comparisonsCmd.AddCommand(comparisonsShowCmd)
}

func createComparison(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	var criteria []string
	for _, c := range strings.Split(compareCriteria, ",") {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			criteria = append(criteria, trimmed)
		}
	}

	comparison, err := apiClient.CreateComparison(args[0], args[1], compareJudgeModel, criteria)
	if err != nil {
		return fmt.Errorf("failed to create comparison: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(comparison)
	}

	printComparison(comparison)
	return nil
}

func listComparisons(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	comparisons, err := apiClient.ListComparisons()
	if err != nil {
		return fmt.Errorf("failed to list comparisons: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(comparisons)
	}

	if len(comparisons) == 0 {
		fmt.Println("No comparisons found")
		return nil
	}

	fmt.Println("\nComparisons:")
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, c := range comparisons {
		fmt.Printf("  %-36s winner=%-4s judge=%s\n", c.ID, c.OverallWinner, c.JudgeModel)
	}
	fmt.Println()

	return nil
}

func showComparison(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	comparison, err := apiClient.GetComparison(args[0])
	if err != nil {
		return fmt.Errorf("failed to get comparison: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(comparison)
	}

	printComparison(comparison)
	return nil
}

func printComparison(c *client.Comparison) {
	fmt.Printf("\nComparison: %s\n", c.ID)
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Printf("Analyses: A=%s B=%s\n", c.AnalysisAID, c.AnalysisBID)
	fmt.Printf("Judge model: %s\n", c.JudgeModel)
	fmt.Printf("Overall winner: %s\n", c.OverallWinner)
	fmt.Printf("Reasoning: %s\n", c.OverallReasoning)
	for i, stage := range []client.StageVerdict{c.Stage1, c.Stage2, c.Stage3} {
		if stage.Winner == nil {
			continue
		}
		fmt.Printf("Stage %d winner: %s\n", i+1, *stage.Winner)
	}
	if c.JudgeTotalTokens != nil {
		fmt.Printf("Judge tokens: %d\n", *c.JudgeTotalTokens)
	}
	if c.JudgeCost != nil {
		fmt.Printf("Judge cost: $%.4f\n", *c.JudgeCost)
	}
	fmt.Println()
}
