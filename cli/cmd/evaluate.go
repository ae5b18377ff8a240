/*-------------------------------------------------------------------------
 *
 * evaluate.go
 *    Evaluation execution command for datagrub-cli
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/cmd/evaluate.go
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
	evaluateCmd = &cobra.Command{
		Use:   "evaluate [trace-id]",
		Short: "Run catalog evaluations against a trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvaluations,
	}

	evaluateIDs   string
	evaluateModel string
)

func init() {
	evaluateCmd.Flags().StringVar(&evaluateIDs, "evals", "", "Comma-separated evaluation ids (required)")
	evaluateCmd.Flags().StringVar(&evaluateModel, "model", "", "Model override for LLM-backed evaluations")
	evaluateCmd.MarkFlagRequired("evals")
}

func runEvaluations(cmd *cobra.Command, args []string) error {
	traceID := args[0]
	apiClient := client.NewClient(apiURL, orgID)

	var ids []string
	for _, id := range strings.Split(evaluateIDs, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no evaluation ids given")
	}

	outcomes, err := apiClient.RunEvaluations(traceID, ids, evaluateModel)
	if err != nil {
		return fmt.Errorf("failed to run evaluations: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(outcomes)
	}

	fmt.Printf("\nOutcomes for trace %s:\n", traceID)
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, outcome := range outcomes {
		line := fmt.Sprintf("  %-28s %-10s", outcome.EvaluationID, outcome.Status)
		if outcome.Score != nil {
			line += fmt.Sprintf(" score=%.3f", *outcome.Score)
		}
		if outcome.Passed != nil {
			line += fmt.Sprintf(" passed=%t", *outcome.Passed)
		}
		if outcome.AdapterName != "" {
			line += fmt.Sprintf(" adapter=%s", outcome.AdapterName)
		}
		fmt.Println(line)
		if outcome.Error != "" {
			fmt.Printf("    error: %s\n", outcome.Error)
		}
	}
	fmt.Println()

	return nil
}
