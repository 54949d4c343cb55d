// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults applied by stage constructors when a config field is zero.
const (
	DefaultFuzzyThreshold     = 0.8
	DefaultMaxDistance        = 500
	DefaultProximityThreshold = 100
	DefaultDedupThreshold     = 0.9
	DefaultMaxWorkers         = 10
	DefaultMaxRetries         = 3
	DefaultInitialBackoff     = 2 * time.Second
	DefaultAuthor             = "system"
)

// AlignConfig holds settings for span grounding.
type AlignConfig struct {
	// FuzzyThreshold is the minimum similarity ratio for a fuzzy match
	// (default 0.8). Must be in (0, 1].
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
}

// ResolverConfig holds settings for reference resolution.
type ResolverConfig struct {
	// FuzzyThreshold is the minimum similarity for partial-name matching
	// (default 0.8). Must be in (0, 1].
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`

	// MaxDistance is the largest character gap between a reference and
	// its antecedent (default 500). Must be positive.
	MaxDistance int `json:"max_distance" yaml:"max_distance"`
}

// RelationshipConfig holds settings for relationship inference.
type RelationshipConfig struct {
	// ProximityThreshold is the largest span-start distance at which two
	// extractions are considered proximate (default 100). Must be
	// positive.
	ProximityThreshold int `json:"proximity_threshold" yaml:"proximity_threshold"`
}

// MergePolicy selects the dedup tie-break ordering between alignment status
// and attribute richness.
type MergePolicy string

const (
	// PolicyAlignmentFirst prefers alignment status, then attribute
	// count, then earliest pass. The default.
	PolicyAlignmentFirst MergePolicy = "alignment_first"

	// PolicyAttributesFirst prefers attribute count, then alignment
	// status, then earliest pass.
	PolicyAttributesFirst MergePolicy = "attributes_first"
)

// MergeConfig holds settings for multi-pass deduplication.
type MergeConfig struct {
	// DedupThreshold is the text similarity at which two same-class
	// extractions are near-duplicates (default 0.9). Must be in (0, 1].
	DedupThreshold float64 `json:"dedup_threshold" yaml:"dedup_threshold"`

	// Policy orders the representative tie-breaks (default
	// alignment_first).
	Policy MergePolicy `json:"policy" yaml:"policy"`
}

// AnnotateConfig holds settings for the annotation stage.
type AnnotateConfig struct {
	// Author is recorded on every produced annotation (default "system").
	Author string `json:"author" yaml:"author"`
}

// BatchConfig holds settings for the concurrent batch coordinator.
type BatchConfig struct {
	// MaxWorkers is the worker pool width (default 10). Must be positive.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// MaxRetries is the retry budget for transient generator failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialBackoff is the first retry delay; it doubles per attempt
	// (default 2s).
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
}

// PassSpec describes one extraction pass requested from the generator.
// Prompt construction happens outside this core; a PassSpec only carries what
// the pipeline needs to route and filter results.
type PassSpec struct {
	// Name identifies the pass (e.g. "entities", "amounts").
	Name string `json:"name" yaml:"name"`

	// Classes optionally restricts the pass output to these class tags.
	// An empty list keeps everything.
	Classes []string `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// PipelineConfig groups all stage configurations. Read-only once the
// pipeline starts.
type PipelineConfig struct {
	Align        AlignConfig        `json:"align" yaml:"align"`
	Resolver     ResolverConfig     `json:"resolver" yaml:"resolver"`
	Relationship RelationshipConfig `json:"relationship" yaml:"relationship"`
	Merge        MergeConfig        `json:"merge" yaml:"merge"`
	Annotate     AnnotateConfig     `json:"annotate" yaml:"annotate"`
	Batch        BatchConfig        `json:"batch" yaml:"batch"`
}
