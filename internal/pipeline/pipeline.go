// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains the enhancement stages over a single document:
// generation passes, span grounding, multi-pass merge, reference and
// relationship resolution, and annotation.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/extract-engine/internal/align"
	"github.com/pdiddy/extract-engine/internal/annotate"
	"github.com/pdiddy/extract-engine/internal/merge"
	"github.com/pdiddy/extract-engine/internal/resolve"
	"github.com/pdiddy/extract-engine/pkg/types"
)

// Generator produces the raw extractions for one pass over one document.
// Implementations wrap whatever produces extractions: a model backend, a
// results directory, a fixture. A Generator must be safe for concurrent use;
// the batch coordinator calls it from many workers.
type Generator interface {
	Generate(ctx context.Context, doc types.Document, pass types.PassSpec) ([]*types.Extraction, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, doc types.Document, pass types.PassSpec) ([]*types.Extraction, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, doc types.Document, pass types.PassSpec) ([]*types.Extraction, error) {
	return f(ctx, doc, pass)
}

// Pipeline runs the fixed stage sequence for one document at a time. The
// stage instances are immutable after construction, so one Pipeline serves
// concurrent documents; only the per-document Annotator is created fresh on
// every Process call.
type Pipeline struct {
	generator Generator
	passes    []types.PassSpec

	aligner      *align.Aligner
	refResolver  *resolve.ReferenceResolver
	relResolver  *resolve.RelationshipResolver
	merger       *merge.Merger
	annotateCfg  types.AnnotateConfig
	annotateOpts []annotate.Option
}

// PipelineOption customizes a Pipeline at construction.
type PipelineOption func(*Pipeline)

// WithAnnotatorOptions forwards options to every per-document Annotator.
func WithAnnotatorOptions(opts ...annotate.Option) PipelineOption {
	return func(p *Pipeline) { p.annotateOpts = opts }
}

// New builds a Pipeline from the stage configs. At least one pass is
// required; a nil generator or invalid stage config is a construction error.
func New(cfg types.PipelineConfig, generator Generator, passes []types.PassSpec, opts ...PipelineOption) (*Pipeline, error) {
	if generator == nil {
		return nil, fmt.Errorf("pipeline: nil generator")
	}
	if len(passes) == 0 {
		return nil, fmt.Errorf("pipeline: no passes configured")
	}

	aligner, err := align.New(cfg.Align)
	if err != nil {
		return nil, err
	}
	refResolver, err := resolve.NewReferenceResolver(cfg.Resolver)
	if err != nil {
		return nil, err
	}
	relResolver, err := resolve.NewRelationshipResolver(cfg.Relationship)
	if err != nil {
		return nil, err
	}
	merger, err := merge.New(cfg.Merge)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		generator:   generator,
		passes:      passes,
		aligner:     aligner,
		refResolver: refResolver,
		relResolver: relResolver,
		merger:      merger,
		annotateCfg: cfg.Annotate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process runs every configured pass over doc and assembles the annotated
// result. A failed pass is skipped; the document errors only when every pass
// fails, wrapping the last failure so transient classification survives for
// the retry loop.
func (p *Pipeline) Process(ctx context.Context, doc types.Document) (*types.AnnotatedDocument, error) {
	passResults := make([][]*types.Extraction, 0, len(p.passes))
	var lastErr error
	failed := 0

	for _, pass := range p.passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		extractions, err := p.generator.Generate(ctx, doc, pass)
		if err != nil {
			lastErr = fmt.Errorf("pass %s: %w", pass.Name, err)
			failed++
			continue
		}

		extractions = filterClasses(extractions, pass.Classes)
		for _, ext := range extractions {
			if ext.ID == "" {
				ext.ID = uuid.NewString()
			}
		}
		p.aligner.AlignAll(extractions, doc.Text)
		passResults = append(passResults, extractions)
	}

	if failed == len(p.passes) {
		return nil, fmt.Errorf("all %d passes failed: %w", failed, lastErr)
	}

	merged := p.merger.Merge(passResults...)
	references := p.refResolver.Resolve(merged, doc.Text)
	relationships := p.relResolver.Resolve(merged)

	annotator := annotate.New(p.annotateCfg, p.annotateOpts...)
	annotations := annotator.AnnotateAll(merged)

	return &types.AnnotatedDocument{
		Document:      doc,
		Extractions:   merged,
		References:    references,
		Relationships: relationships,
		Annotations:   annotations,
	}, nil
}

// filterClasses drops extractions whose class is not in the pass allowlist.
// An empty allowlist keeps everything.
func filterClasses(extractions []*types.Extraction, classes []string) []*types.Extraction {
	if len(classes) == 0 {
		return extractions
	}
	allowed := make(map[string]bool, len(classes))
	for _, c := range classes {
		allowed[c] = true
	}
	kept := extractions[:0]
	for _, ext := range extractions {
		if ext != nil && allowed[ext.Class] {
			kept = append(kept, ext)
		}
	}
	return kept
}
