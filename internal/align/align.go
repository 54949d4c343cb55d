// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package align grounds extraction text to character spans in the source
// document.
package align

import (
	"fmt"
	"strings"

	"github.com/pdiddy/extract-engine/internal/textsim"
	"github.com/pdiddy/extract-engine/pkg/types"
)

// tie-break tolerance for comparing similarity ratios.
const ratioEpsilon = 1e-9

// Aligner locates extraction text in a source document, exactly when
// possible and fuzzily otherwise. An unmatched text is a normal outcome
// (status none), never an error.
type Aligner struct {
	threshold float64
}

// New builds an Aligner. A zero threshold takes the default (0.8); values
// outside (0, 1] are a configuration error.
func New(cfg types.AlignConfig) (*Aligner, error) {
	t := cfg.FuzzyThreshold
	if t == 0 {
		t = types.DefaultFuzzyThreshold
	}
	if t < 0 || t > 1 {
		return nil, fmt.Errorf("align: fuzzy threshold %v outside (0, 1]", t)
	}
	return &Aligner{threshold: t}, nil
}

// Align locates text in source. It tries an exact substring match first,
// preferring the first occurrence at or after hint; when none exists it runs
// a fuzzy sliding-window search and accepts the best window clearing the
// threshold. Equally similar windows break toward the one nearest the hint.
func (a *Aligner) Align(text, source string, hint int) (*types.Span, types.AlignmentStatus) {
	if text == "" || source == "" {
		return nil, types.AlignNone
	}
	if hint < 0 {
		hint = 0
	}
	if hint > len(source) {
		hint = len(source)
	}

	// Exact match at or after the hint keeps sequential extractions from
	// collapsing onto the same occurrence.
	if idx := strings.Index(source[hint:], text); idx >= 0 {
		start := hint + idx
		return &types.Span{Start: start, End: start + len(text)}, types.AlignExact
	}
	if idx := strings.Index(source, text); idx >= 0 {
		return &types.Span{Start: idx, End: idx + len(text)}, types.AlignExact
	}

	return a.fuzzy(text, source, hint)
}

// fuzzy slides a window of len(text) over the source and keeps the most
// similar window. Locality wins over a marginally closer edit distance: an
// equally similar window nearer the hint replaces the incumbent.
func (a *Aligner) fuzzy(text, source string, hint int) (*types.Span, types.AlignmentStatus) {
	wlen := len(text)
	if wlen >= len(source) {
		if textsim.Ratio(text, source) >= a.threshold {
			return &types.Span{Start: 0, End: len(source)}, types.AlignFuzzy
		}
		return nil, types.AlignNone
	}

	bestRatio := 0.0
	bestStart := -1
	for start := 0; start+wlen <= len(source); start++ {
		r := textsim.Ratio(text, source[start:start+wlen])
		switch {
		case r > bestRatio+ratioEpsilon:
			bestRatio = r
			bestStart = start
		case r > bestRatio-ratioEpsilon && bestStart >= 0:
			if absInt(start-hint) < absInt(bestStart-hint) {
				bestStart = start
			}
		}
	}

	if bestStart < 0 || bestRatio < a.threshold {
		return nil, types.AlignNone
	}
	return &types.Span{Start: bestStart, End: bestStart + wlen}, types.AlignFuzzy
}

// AlignAll grounds every extraction in list order, advancing the hint past
// each found span so repeated texts land on distinct occurrences. Span and
// Alignment are set in place; already-grounded extractions whose span text
// still clears the threshold are left alone.
func (a *Aligner) AlignAll(extractions []*types.Extraction, source string) {
	hint := 0
	for _, ext := range extractions {
		if ext.Span != nil && ext.Span.Valid(len(source)) &&
			textsim.Ratio(ext.Text, ext.Span.Text(source)) >= a.threshold {
			if ext.Alignment == "" {
				if ext.Span.Text(source) == ext.Text {
					ext.Alignment = types.AlignExact
				} else {
					ext.Alignment = types.AlignFuzzy
				}
			}
			hint = ext.Span.End
			continue
		}

		span, status := a.Align(ext.Text, source, hint)
		ext.Span = span
		ext.Alignment = status
		if span != nil {
			hint = span.End
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
