// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extract-engine/internal/batch"
	"github.com/pdiddy/extract-engine/internal/corpus"
	"github.com/pdiddy/extract-engine/internal/store"
	"github.com/pdiddy/extract-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the enhancement pipeline over a corpus concurrently",
	Long: `Batch loads documents from a CSV file (--csv) or a directory of text
files (--corpus-dir), processes them through the enhancement pipeline on a
worker pool, and reports per-document outcomes. Transient failures are
retried with exponential backoff; a failed document never aborts the batch.

Interrupting the run stops new dispatch; documents already in flight finish
and their results are kept.`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	docs, err := loadBatchCorpus(cmd)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to process")
	}

	p, err := pipelineFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfigFromViper().Batch
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.MaxWorkers = workers
	}
	if retries, _ := cmd.Flags().GetInt("retries"); retries > 0 {
		cfg.MaxRetries = retries
	}

	opts := []batch.Option{batch.WithProgress(os.Stderr)}
	if threshold, _ := cmd.Flags().GetInt("breaker-threshold"); threshold > 0 {
		cooldown, _ := cmd.Flags().GetDuration("breaker-cooldown")
		opts = append(opts, batch.WithBreaker(batch.NewBreaker(threshold, cooldown)))
	}

	coord, err := batch.NewCoordinator(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := coord.Run(ctx, docs, p.Process)

	fmt.Fprintf(os.Stderr, "\nsucceeded: %d, failed: %d, retries: %d, status: %s\n",
		result.Succeeded, result.Failed, result.Retries, result.Status)

	if storeDir, _ := cmd.Flags().GetString("store-dir"); storeDir != "" {
		s, err := store.NewStore(storeDir, 0)
		if err != nil {
			return err
		}
		defer s.Close()
		if _, failed, err := s.SaveBatch(context.Background(), result, os.Stderr); err != nil {
			return err
		} else if failed > 0 {
			return fmt.Errorf("%d document(s) failed to save", failed)
		}
	}

	if result.Status == types.BatchFailed {
		return fmt.Errorf("batch failed: %d of %d documents succeeded",
			result.Succeeded, len(result.Items))
	}
	return nil
}

func loadBatchCorpus(cmd *cobra.Command) ([]types.Document, error) {
	csvPath, _ := cmd.Flags().GetString("csv")
	corpusDir, _ := cmd.Flags().GetString("corpus-dir")

	switch {
	case csvPath != "" && corpusDir != "":
		return nil, fmt.Errorf("--csv and --corpus-dir are mutually exclusive")
	case csvPath != "":
		textColumn, _ := cmd.Flags().GetString("text-column")
		idColumn, _ := cmd.Flags().GetString("id-column")
		metadataColumns, _ := cmd.Flags().GetStringSlice("metadata-columns")
		maxRows, _ := cmd.Flags().GetInt("max-rows")
		return corpus.LoadCSV(csvPath, corpus.CSVOptions{
			TextColumn:      textColumn,
			IDColumn:        idColumn,
			MetadataColumns: metadataColumns,
			MaxRows:         maxRows,
		})
	case corpusDir != "":
		return corpus.LoadDir(corpusDir)
	default:
		return nil, fmt.Errorf("a corpus is required: provide --csv or --corpus-dir")
	}
}

func init() {
	addPipelineFlags(batchCmd)

	batchCmd.Flags().String("csv", "", "CSV corpus file, one document per row")
	batchCmd.Flags().String("text-column", "text", "CSV column holding document text")
	batchCmd.Flags().String("id-column", "", "CSV column holding document IDs (default: generated)")
	batchCmd.Flags().StringSlice("metadata-columns", nil, "CSV columns carried into document metadata")
	batchCmd.Flags().Int("max-rows", 0, "maximum CSV rows to load (0 = all)")
	batchCmd.Flags().String("corpus-dir", "", "directory of .txt/.md documents")
	batchCmd.Flags().Int("workers", 0, "worker pool width (0 = use config/default)")
	batchCmd.Flags().Int("retries", 0, "retry budget for transient failures (0 = use config/default)")
	batchCmd.Flags().Int("breaker-threshold", 0, "consecutive failures before shedding generator calls (0 = disabled)")
	batchCmd.Flags().Duration("breaker-cooldown", 30*time.Second, "how long to shed calls before probing again")

	rootCmd.AddCommand(batchCmd)
}
