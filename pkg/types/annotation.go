// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AnnotationKind categorizes quality and verification metadata attached to an
// extraction.
type AnnotationKind string

const (
	AnnQuality      AnnotationKind = "quality"
	AnnVerification AnnotationKind = "verification"
	AnnCorrection   AnnotationKind = "correction"
	AnnNote         AnnotationKind = "note"
	AnnWarning      AnnotationKind = "warning"
	AnnError        AnnotationKind = "error"
)

// ConfidenceLevel buckets a numeric confidence score.
type ConfidenceLevel string

const (
	LevelHigh      ConfidenceLevel = "high"
	LevelMedium    ConfidenceLevel = "medium"
	LevelLow       ConfidenceLevel = "low"
	LevelUncertain ConfidenceLevel = "uncertain"
)

// LevelFor buckets a score in [0, 1]: >= 0.8 high, >= 0.5 medium,
// >= 0.3 low, otherwise uncertain.
func LevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	case score >= 0.3:
		return LevelLow
	default:
		return LevelUncertain
	}
}

// Annotation is a piece of quality or verification metadata recorded against
// an extraction ID. Annotations live outside the extraction so that
// annotating never mutates extraction objects.
type Annotation struct {
	// ID identifies the annotation.
	ID string `json:"id" yaml:"id"`

	// ExtractionID is the annotated extraction.
	ExtractionID string `json:"extraction_id" yaml:"extraction_id"`

	// Kind is the annotation category.
	Kind AnnotationKind `json:"kind" yaml:"kind"`

	// Level buckets Confidence for human consumption.
	Level ConfidenceLevel `json:"level" yaml:"level"`

	// Confidence is the numeric score behind Level, in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Content is the human-readable annotation text.
	Content string `json:"content" yaml:"content"`

	// Author identifies who or what produced the annotation.
	Author string `json:"author" yaml:"author"`

	// CreatedAt is the annotation timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// AnnotatedDocument is the pipeline's output for one document: the source
// document, its merged extractions in position order, the resolved references
// and relationships, and annotations keyed by extraction ID. It is assembled
// once per pipeline run and handed to writers; the pipeline does not retain
// it.
type AnnotatedDocument struct {
	Document Document `json:"document" yaml:"document"`

	Extractions []*Extraction `json:"extractions" yaml:"extractions"`

	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`

	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`

	// Annotations maps extraction ID to the annotations recorded for it.
	Annotations map[string][]Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}
