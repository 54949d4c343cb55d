// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extract-engine/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search stored extractions with full-text search",
	Long: `Query searches previously stored extraction text using FTS5 full-text
search, optionally filtered by extraction class.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	storeDir, _ := cmd.Flags().GetString("store-dir")
	class, _ := cmd.Flags().GetString("class")
	limit, _ := cmd.Flags().GetInt("limit")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	query := strings.Join(args, " ")
	if query == "" && class == "" {
		return fmt.Errorf("query or filter required: provide search terms or --class")
	}

	s, err := store.NewStore(storeDir, maxResults)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.QueryExtractions(context.Background(), query, class, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.ExtractionRow, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-14s  %-50s  %-20s  %s\n",
		"Rank", "Class", "Text", "Document", "Alignment")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		text := r.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		doc := r.DocumentID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-14s  %-50s  %-20s  %s\n",
			i+1, r.Class, text, doc, r.Alignment)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	queryCmd.Flags().String("store-dir", "store", "directory holding the results database")
	queryCmd.Flags().String("class", "", "filter by extraction class")
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	queryCmd.Flags().Int("max-results", 20, "default result cap")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}
