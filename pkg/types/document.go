// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared across pipeline stages.
package types

// Document is an immutable source text with an identifier and free-form
// metadata. The text never changes once extraction begins; every Span in the
// pipeline indexes into it.
type Document struct {
	// ID identifies the document across passes and batch items.
	ID string `json:"id" yaml:"id"`

	// Text is the full source text extractions are grounded against.
	Text string `json:"text" yaml:"text"`

	// Metadata carries provenance supplied by the loader (source file,
	// row index, caller-selected columns).
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Span is a half-open character interval [Start, End) into a document's text.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of characters the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Valid reports whether the span satisfies 0 <= Start <= End <= textLen.
func (s Span) Valid(textLen int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= textLen
}

// Text returns the covered substring of source. The span must be valid for
// the given source.
func (s Span) Text(source string) string {
	return source[s.Start:s.End]
}

// Overlap returns the number of characters shared by the two intervals.
func (s Span) Overlap(o Span) int {
	start := max(s.Start, o.Start)
	end := min(s.End, o.End)
	if end <= start {
		return 0
	}
	return end - start
}

// AlignmentStatus describes how confidently an extraction was located in the
// source text.
type AlignmentStatus string

const (
	// AlignExact means the extraction text appears verbatim at the span.
	AlignExact AlignmentStatus = "exact"

	// AlignFuzzy means the span's covered text cleared the fuzzy
	// similarity threshold but is not a verbatim match.
	AlignFuzzy AlignmentStatus = "fuzzy"

	// AlignNone means no span cleared the threshold. Not an error.
	AlignNone AlignmentStatus = "none"
)

// Common extraction class tags. The class vocabulary is open; these are the
// tags the resolvers and the annotator know how to reason about.
const (
	ClassPerson       = "person"
	ClassOrganization = "organization"
	ClassGroup        = "group"
	ClassLocation     = "location"
	ClassDate         = "date"
	ClassAmount       = "amount"
	ClassTitle        = "title"
)

// Attribute keys set by the reference resolver on reference extractions.
const (
	AttrRefersTo      = "refers_to"
	AttrReferentID    = "referent_id"
	AttrReferentClass = "referent_class"
	AttrParentID      = "parent_id"
)

// Extraction is one generator output: a classified piece of text, optionally
// grounded to a span of the source document. The aligner and reference
// resolver mutate Span, Alignment, and Attributes in place; the pass merger
// is the only stage that removes extractions.
type Extraction struct {
	// ID is stable within a document. The pipeline assigns one when the
	// generator did not.
	ID string `json:"id" yaml:"id"`

	// Class is the extraction class tag (e.g. "person", "amount").
	Class string `json:"class" yaml:"class"`

	// Text is the extracted surface text.
	Text string `json:"text" yaml:"text"`

	// Span locates Text in the source document; nil when ungrounded.
	Span *Span `json:"span,omitempty" yaml:"span,omitempty"`

	// Attributes is an open key-value map. Per-class keys are validated
	// at annotation time, not assumed earlier.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// Alignment records the grounding outcome for Span.
	Alignment AlignmentStatus `json:"alignment" yaml:"alignment"`
}

// Start returns the span start, or -1 when the extraction is ungrounded.
func (e *Extraction) Start() int {
	if e.Span == nil {
		return -1
	}
	return e.Span.Start
}

// SetAttribute stores a key-value pair, allocating the map on first use.
func (e *Extraction) SetAttribute(key, value string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
}
