// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate attaches quality and verification metadata to extractions.
// Annotations are recorded against extraction IDs; extraction objects are
// never mutated here, so documents can be annotated concurrently without
// locking.
package annotate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// Scoring constants: base score by alignment status, penalty multipliers for
// heuristic flags, and the structural sanity bounds for verification.
const (
	baseExact = 1.0
	baseFuzzy = 0.7
	baseNone  = 0.3

	longTextLimit   = 500
	longTextPenalty = 0.8
	markupPenalty   = 0.9

	minYear       = 1900
	maxYear       = 2100
	amountCeiling = 1e9
)

const markupChars = "<>{}"

// dateParser handles natural-language date text that the layout list
// misses.
var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// dateLayouts are tried in order before falling back to the natural-language
// parser.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"2006",
}

// Annotator scores and verifies extractions, accumulating annotations keyed
// by extraction ID. One Annotator serves one document run; create a fresh
// one per pipeline invocation.
type Annotator struct {
	author string
	now    func() time.Time

	annotations []types.Annotation
}

// Option customizes an Annotator at construction.
type Option func(*Annotator)

// WithClock injects the timestamp source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *Annotator) { a.now = now }
}

// New builds an Annotator. An empty author defaults to "system".
func New(cfg types.AnnotateConfig, opts ...Option) *Annotator {
	author := cfg.Author
	if author == "" {
		author = types.DefaultAuthor
	}
	a := &Annotator{author: author, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ScoreQuality computes an extraction's quality score and its bucketed
// confidence level. The base score comes from the alignment status; heuristic
// flags (over-long text, markup characters) multiply it down; the result is
// clamped to [0, 1].
func (a *Annotator) ScoreQuality(ext *types.Extraction) (float64, types.ConfidenceLevel) {
	var score float64
	switch ext.Alignment {
	case types.AlignExact:
		score = baseExact
	case types.AlignFuzzy:
		score = baseFuzzy
	default:
		score = baseNone
	}

	if len(ext.Text) > longTextLimit {
		score *= longTextPenalty
	}
	if strings.ContainsAny(ext.Text, markupChars) {
		score *= markupPenalty
	}

	score = min(max(score, 0), 1)
	return score, types.LevelFor(score)
}

// Annotate records the full annotation set for one extraction: a quality
// annotation, a verification annotation when the class has structural rules,
// and any warnings. It returns the annotations it recorded.
func (a *Annotator) Annotate(ext *types.Extraction) []types.Annotation {
	start := len(a.annotations)

	score, level := a.ScoreQuality(ext)
	a.record(ext.ID, types.AnnQuality, level, score,
		fmt.Sprintf("quality %s (score %.2f)", level, score))

	if ann, ok := a.verify(ext); ok {
		a.annotations = append(a.annotations, ann)
	}
	a.warn(ext)

	return a.annotations[start:]
}

// AnnotateAll annotates every extraction and returns the accumulated
// annotations grouped by extraction ID.
func (a *Annotator) AnnotateAll(extractions []*types.Extraction) map[string][]types.Annotation {
	for _, ext := range extractions {
		a.Annotate(ext)
	}
	grouped := make(map[string][]types.Annotation, len(extractions))
	for _, ann := range a.annotations {
		grouped[ann.ExtractionID] = append(grouped[ann.ExtractionID], ann)
	}
	return grouped
}

// Annotations returns everything recorded so far, in creation order.
func (a *Annotator) Annotations() []types.Annotation {
	return a.annotations
}

// verify runs the class-specific structural checks. Classes without rules
// produce no annotation. An unparsable value downgrades confidence to
// uncertain; it never raises.
func (a *Annotator) verify(ext *types.Extraction) (types.Annotation, bool) {
	switch ext.Class {
	case types.ClassDate:
		return a.verifyDate(ext), true
	case types.ClassAmount:
		return a.verifyAmount(ext), true
	}
	return types.Annotation{}, false
}

func (a *Annotator) verifyDate(ext *types.Extraction) types.Annotation {
	year, ok := parseYear(ext.Text, a.now())
	switch {
	case !ok:
		return a.build(ext.ID, types.AnnVerification, types.LevelUncertain, 0.1,
			fmt.Sprintf("could not parse date %q", ext.Text))
	case year < minYear || year > maxYear:
		return a.build(ext.ID, types.AnnVerification, types.LevelLow, 0.3,
			fmt.Sprintf("date year %d outside [%d, %d]", year, minYear, maxYear))
	default:
		return a.build(ext.ID, types.AnnVerification, types.LevelHigh, 0.9,
			"date within supported range")
	}
}

func (a *Annotator) verifyAmount(ext *types.Extraction) types.Annotation {
	value, ok := parseAmount(ext.Text)
	switch {
	case !ok:
		return a.build(ext.ID, types.AnnVerification, types.LevelUncertain, 0.1,
			fmt.Sprintf("could not parse amount %q", ext.Text))
	case value < 0:
		return a.build(ext.ID, types.AnnVerification, types.LevelLow, 0.3,
			"negative amount")
	case value > amountCeiling:
		return a.build(ext.ID, types.AnnVerification, types.LevelLow, 0.3,
			fmt.Sprintf("amount %.0f exceeds sanity ceiling", value))
	default:
		return a.build(ext.ID, types.AnnVerification, types.LevelHigh, 0.9,
			"amount within supported range")
	}
}

// warn records warning annotations for suspicious shapes: over-long text,
// markup characters, missing grounding.
func (a *Annotator) warn(ext *types.Extraction) {
	if len(ext.Text) > longTextLimit {
		a.record(ext.ID, types.AnnWarning, types.LevelMedium, 0.7,
			fmt.Sprintf("very long extraction (%d characters)", len(ext.Text)))
	}
	if strings.ContainsAny(ext.Text, markupChars) {
		a.record(ext.ID, types.AnnWarning, types.LevelMedium, 0.6,
			"contains markup characters")
	}
	if ext.Span == nil {
		a.record(ext.ID, types.AnnWarning, types.LevelMedium, 0.5,
			"no character position grounding")
	}
}

func (a *Annotator) record(extractionID string, kind types.AnnotationKind, level types.ConfidenceLevel, confidence float64, content string) {
	a.annotations = append(a.annotations, a.build(extractionID, kind, level, confidence, content))
}

func (a *Annotator) build(extractionID string, kind types.AnnotationKind, level types.ConfidenceLevel, confidence float64, content string) types.Annotation {
	return types.Annotation{
		ID:           uuid.NewString(),
		ExtractionID: extractionID,
		Kind:         kind,
		Level:        level,
		Confidence:   confidence,
		Content:      content,
		Author:       a.author,
		CreatedAt:    a.now(),
	}
}

// parseYear extracts the year from date text: explicit layouts first, then
// the natural-language parser.
func parseYear(text string, ref time.Time) (int, bool) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Year(), true
		}
	}
	if r, err := dateParser.Parse(trimmed, ref); err == nil && r != nil {
		return r.Time.Year(), true
	}
	return 0, false
}

// parseAmount strips currency symbols and separators and parses the numeric
// value.
func parseAmount(text string) (float64, bool) {
	var b strings.Builder
	for _, c := range text {
		if c >= '0' && c <= '9' || c == '.' || c == '-' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
