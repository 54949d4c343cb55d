// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the extract-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the extract-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "extract-engine",
	Short: "Enhancement and merge pipeline for extraction output",
	Long: `extract-engine post-processes structured extraction output: it grounds
extraction text to character spans, merges multi-pass results, resolves
pronouns and abbreviations to their antecedents, infers relationships
between proximate entities, and attaches quality annotations.

Each operation is a subcommand: enhance processes one document, batch
processes a corpus concurrently, and query searches stored results.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./extract-engine.yaml or ~/.config/extract-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("extract-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "extract-engine"))
		}
	}

	viper.SetEnvPrefix("EXTRACT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfigFromViper assembles the stage configs from the config file
// and environment. Unset keys stay zero so stage constructors apply their
// defaults.
func pipelineConfigFromViper() types.PipelineConfig {
	return types.PipelineConfig{
		Align: types.AlignConfig{
			FuzzyThreshold: viper.GetFloat64("align.fuzzy_threshold"),
		},
		Resolver: types.ResolverConfig{
			FuzzyThreshold: viper.GetFloat64("resolver.fuzzy_threshold"),
			MaxDistance:    viper.GetInt("resolver.max_distance"),
		},
		Relationship: types.RelationshipConfig{
			ProximityThreshold: viper.GetInt("relationship.proximity_threshold"),
		},
		Merge: types.MergeConfig{
			DedupThreshold: viper.GetFloat64("merge.dedup_threshold"),
			Policy:         types.MergePolicy(viper.GetString("merge.policy")),
		},
		Annotate: types.AnnotateConfig{
			Author: viper.GetString("annotate.author"),
		},
		Batch: types.BatchConfig{
			MaxWorkers:     viper.GetInt("batch.max_workers"),
			MaxRetries:     viper.GetInt("batch.max_retries"),
			InitialBackoff: viper.GetDuration("batch.initial_backoff"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
