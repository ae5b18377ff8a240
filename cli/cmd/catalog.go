/*-------------------------------------------------------------------------
 *
 * catalog.go
 *    Catalog and adapter inspection commands for datagrub-cli
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/cmd/catalog.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opencircle/datagrub/cli/pkg/client"
	"github.com/spf13/cobra"
)

var (
	adaptersCmd = &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapters and their availability",
		RunE:  listAdapters,
	}

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Evaluation catalog commands",
	}

	catalogListCmd = &cobra.Command{
		Use:   "list",
		Short: "List evaluation catalog entries",
		RunE:  listCatalog,
	}

	catalogShowCmd = &cobra.Command{
		Use:   "show [entry-id]",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE:  showCatalogEntry,
	}

	catalogSource string
)

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogListCmd.Flags().StringVar(&catalogSource, "source", "", "Filter by source (first_party, vendor, custom, llm_judge)")
}

func listAdapters(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	adapters, err := apiClient.ListAdapters()
	if err != nil {
		return fmt.Errorf("failed to list adapters: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(adapters)
	}

	fmt.Println("\nAdapters:")
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, adapter := range adapters {
		status := "available"
		if !adapter.Available {
			status = adapter.Availability
		}
		fmt.Printf("  %-24s %-12s %s\n", adapter.Name, adapter.Source, status)
		for _, id := range adapter.Evaluations {
			fmt.Printf("    - %s\n", id)
		}
	}
	fmt.Println()

	return nil
}

func listCatalog(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	entries, err := apiClient.ListCatalog(catalogSource)
	if err != nil {
		return fmt.Errorf("failed to list catalog: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No catalog entries found")
		return nil
	}

	fmt.Println("\nCatalog:")
	fmt.Println("─────────────────────────────────────────────────────────")
	for _, entry := range entries {
		visibility := "private"
		if entry.IsPublic {
			visibility = "public"
		}
		fmt.Printf("  %-28s %-12s %-8s %s\n", entry.ID, entry.Source, visibility, entry.Name)
	}
	fmt.Println()

	return nil
}

func showCatalogEntry(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL, orgID)

	entry, err := apiClient.GetCatalogEntry(args[0])
	if err != nil {
		return fmt.Errorf("failed to get catalog entry: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(entry)
	}

	fmt.Printf("\nCatalog entry: %s\n", entry.ID)
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Printf("Name: %s\n", entry.Name)
	if entry.Description != "" {
		fmt.Printf("Description: %s\n", entry.Description)
	}
	fmt.Printf("Source: %s\n", entry.Source)
	if entry.EvaluationType != "" {
		fmt.Printf("Type: %s\n", entry.EvaluationType)
	}
	if entry.AdapterHint != nil {
		fmt.Printf("Adapter hint: %s\n", *entry.AdapterHint)
	}
	if len(entry.DefaultConfig) > 0 {
		fmt.Printf("Default config: %+v\n", entry.DefaultConfig)
	}
	fmt.Println()

	return nil
}
