// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extract-engine/internal/corpus"
	"github.com/pdiddy/extract-engine/internal/pipeline"
	"github.com/pdiddy/extract-engine/internal/store"
	"github.com/pdiddy/extract-engine/pkg/types"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [document.txt]",
	Short: "Run the enhancement pipeline over one document",
	Long: `Enhance reads one text document and its stored extraction passes from
--extractions-dir (one YAML file per pass, named <docID>-<pass>.yaml),
runs alignment, merge, reference and relationship resolution, and
annotation, and prints the annotated result as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func runEnhance(cmd *cobra.Command, args []string) error {
	doc, err := corpus.LoadTextFile(args[0])
	if err != nil {
		return err
	}

	p, err := pipelineFromFlags(cmd)
	if err != nil {
		return err
	}

	result, err := p.Process(context.Background(), doc)
	if err != nil {
		return fmt.Errorf("enhancing %s: %w", doc.ID, err)
	}

	if storeDir, _ := cmd.Flags().GetString("store-dir"); storeDir != "" {
		s, err := store.NewStore(storeDir, 0)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SaveDocument(context.Background(), result); err != nil {
			return fmt.Errorf("saving %s: %w", doc.ID, err)
		}
		fmt.Fprintf(os.Stderr, "saved   %s (%d extractions)\n", doc.ID, len(result.Extractions))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// pipelineFromFlags builds the pipeline shared by enhance and batch: a
// file-backed generator over --extractions-dir and one pass per --passes
// entry, optionally filtered by --classes.
func pipelineFromFlags(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	extractionsDir, _ := cmd.Flags().GetString("extractions-dir")
	passNames, _ := cmd.Flags().GetStringSlice("passes")
	classes, _ := cmd.Flags().GetStringSlice("classes")

	gen, err := pipeline.NewFileGenerator(extractionsDir)
	if err != nil {
		return nil, err
	}

	passes := make([]types.PassSpec, 0, len(passNames))
	for _, name := range passNames {
		passes = append(passes, types.PassSpec{Name: name, Classes: classes})
	}

	return pipeline.New(pipelineConfigFromViper(), gen, passes)
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("extractions-dir", "extractions", "directory of stored pass results (<docID>-<pass>.yaml)")
	cmd.Flags().StringSlice("passes", []string{"entities"}, "extraction pass names, applied in order")
	cmd.Flags().StringSlice("classes", nil, "restrict passes to these extraction classes")
	cmd.Flags().String("store-dir", "", "persist results to a SQLite store in this directory")
}

func init() {
	addPipelineFlags(enhanceCmd)
	rootCmd.AddCommand(enhanceCmd)
}
