// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ReferenceKind categorizes how a reference extraction points at its
// antecedent.
type ReferenceKind string

const (
	RefPronoun      ReferenceKind = "pronoun"
	RefAbbreviation ReferenceKind = "abbreviation"
	RefAlias        ReferenceKind = "alias"
	RefCoreference  ReferenceKind = "coreference"
	RefPartial      ReferenceKind = "partial"
)

// Reference is a resolved link from a reference-only mention (pronoun,
// abbreviation, partial name) to an antecedent extraction in the same
// document.
type Reference struct {
	// SourceID is the referring extraction.
	SourceID string `json:"source_id" yaml:"source_id"`

	// TargetID is the antecedent extraction.
	TargetID string `json:"target_id" yaml:"target_id"`

	// Kind is the reference category.
	Kind ReferenceKind `json:"kind" yaml:"kind"`

	// Confidence is the resolution confidence in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Distance is the character gap between the reference's span start
	// and the antecedent's span end.
	Distance int `json:"distance" yaml:"distance"`
}

// RelationshipKind categorizes an inferred relation between two extractions.
type RelationshipKind string

const (
	RelEmployment  RelationshipKind = "employment"
	RelLocation    RelationshipKind = "location"
	RelTemporal    RelationshipKind = "temporal"
	RelFinancial   RelationshipKind = "financial"
	RelTitle       RelationshipKind = "title"
	RelOwnership   RelationshipKind = "ownership"
	RelAssociation RelationshipKind = "association"
	RelReference   RelationshipKind = "reference"
	RelChildOf     RelationshipKind = "child_of"
)

// Relationship is a typed association between two entity extractions. Both
// endpoints must exist in the same document's extraction list.
type Relationship struct {
	// Entity1ID and Entity2ID identify the related extractions.
	Entity1ID string `json:"entity1_id" yaml:"entity1_id"`
	Entity2ID string `json:"entity2_id" yaml:"entity2_id"`

	// Kind is the relation category.
	Kind RelationshipKind `json:"kind" yaml:"kind"`

	// Confidence is the inference confidence in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Metadata records the evidence behind the inference (e.g.
	// "evidence": "proximity", "distance": "42").
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
