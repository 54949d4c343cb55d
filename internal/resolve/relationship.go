// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"strconv"

	"github.com/pdiddy/extract-engine/pkg/types"
)

// WildcardClass matches any extraction class in a relationship rule.
const WildcardClass = "*"

// Rule maps an unordered class pair to a relationship kind. Class order in
// the rule does not matter; either side may be the wildcard.
type Rule struct {
	Class1     string
	Class2     string
	Kind       types.RelationshipKind
	Confidence float64
}

// matches reports whether the rule covers the unordered pair (c1, c2).
func (r Rule) matches(c1, c2 string) bool {
	return (classMatch(r.Class1, c1) && classMatch(r.Class2, c2)) ||
		(classMatch(r.Class1, c2) && classMatch(r.Class2, c1))
}

func classMatch(ruleClass, class string) bool {
	return ruleClass == WildcardClass || ruleClass == class
}

// defaultRules is the built-in class-pair table. It is an explicit ordered
// list resolved once at construction; the first matching rule wins, so the
// wildcard temporal rule comes last.
var defaultRules = []Rule{
	{types.ClassPerson, types.ClassOrganization, types.RelEmployment, 0.7},
	{types.ClassPerson, types.ClassLocation, types.RelLocation, 0.7},
	{types.ClassPerson, types.ClassAmount, types.RelFinancial, 0.65},
	{types.ClassOrganization, types.ClassAmount, types.RelFinancial, 0.65},
	{types.ClassPerson, types.ClassTitle, types.RelTitle, 0.8},
	{WildcardClass, types.ClassDate, types.RelTemporal, 0.6},
}

// RelationshipResolver infers typed relations between pairs of extractions:
// unconditionally when one extraction's attributes point at the other's ID,
// and by class-pair lookup when the two are proximate in the text. It never
// mutates extractions.
type RelationshipResolver struct {
	proximity int
	rules     []Rule
}

// RelationshipOption customizes a RelationshipResolver at construction.
type RelationshipOption func(*RelationshipResolver)

// WithRule appends a class-pair rule ahead of the built-in wildcard rules.
func WithRule(rule Rule) RelationshipOption {
	return func(r *RelationshipResolver) {
		r.rules = append([]Rule{rule}, r.rules...)
	}
}

// NewRelationshipResolver builds a resolver. A zero proximity threshold
// takes the default (100); negative values are a configuration error.
func NewRelationshipResolver(cfg types.RelationshipConfig, opts ...RelationshipOption) (*RelationshipResolver, error) {
	p := cfg.ProximityThreshold
	if p == 0 {
		p = types.DefaultProximityThreshold
	}
	if p < 0 {
		return nil, fmt.Errorf("resolve: proximity threshold %d is negative", p)
	}

	r := &RelationshipResolver{
		proximity: p,
		rules:     append([]Rule(nil), defaultRules...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// pairKey dedupes relations: at most one relation per unordered ID pair and
// kind.
type pairKey struct {
	a, b string
	kind types.RelationshipKind
}

func keyFor(id1, id2 string, kind types.RelationshipKind) pairKey {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return pairKey{a: id1, b: id2, kind: kind}
}

// Resolve scans every unordered pair of distinct extractions. O(n^2) in the
// extraction count, which is fine at the tens-to-low-hundreds scale a single
// document produces.
func (r *RelationshipResolver) Resolve(extractions []*types.Extraction) []types.Relationship {
	var rels []types.Relationship
	seen := make(map[pairKey]bool)

	emit := func(rel types.Relationship) {
		if rel.Entity1ID == rel.Entity2ID {
			return
		}
		key := keyFor(rel.Entity1ID, rel.Entity2ID, rel.Kind)
		if seen[key] {
			return
		}
		seen[key] = true
		rels = append(rels, rel)
	}

	for i, e1 := range extractions {
		for _, e2 := range extractions[i+1:] {
			if rel, ok := attributeRelation(e1, e2); ok {
				emit(rel)
				continue
			}
			if rel, ok := attributeRelation(e2, e1); ok {
				emit(rel)
				continue
			}
			if rel, ok := r.proximityRelation(e1, e2); ok {
				emit(rel)
			}
		}
	}
	return rels
}

// attributeRelation emits unconditionally when src's attributes point at
// dst's ID: a resolved reference or an explicit parent link.
func attributeRelation(src, dst *types.Extraction) (types.Relationship, bool) {
	if src.Attributes == nil {
		return types.Relationship{}, false
	}
	if src.Attributes[types.AttrParentID] == dst.ID && dst.ID != "" {
		return types.Relationship{
			Entity1ID:  src.ID,
			Entity2ID:  dst.ID,
			Kind:       types.RelChildOf,
			Confidence: 1.0,
			Metadata:   map[string]string{"evidence": "explicit_attribute"},
		}, true
	}
	if src.Attributes[types.AttrReferentID] == dst.ID && dst.ID != "" {
		return types.Relationship{
			Entity1ID:  src.ID,
			Entity2ID:  dst.ID,
			Kind:       types.RelReference,
			Confidence: 0.9,
			Metadata:   map[string]string{"evidence": "reference_resolution"},
		}, true
	}
	return types.Relationship{}, false
}

// proximityRelation applies the class-pair table when both extractions are
// grounded and their span starts are within the threshold.
func (r *RelationshipResolver) proximityRelation(e1, e2 *types.Extraction) (types.Relationship, bool) {
	if e1.Span == nil || e2.Span == nil {
		return types.Relationship{}, false
	}
	distance := e1.Span.Start - e2.Span.Start
	if distance < 0 {
		distance = -distance
	}
	if distance > r.proximity {
		return types.Relationship{}, false
	}

	for _, rule := range r.rules {
		if rule.matches(e1.Class, e2.Class) {
			return types.Relationship{
				Entity1ID:  e1.ID,
				Entity2ID:  e2.ID,
				Kind:       rule.Kind,
				Confidence: rule.Confidence,
				Metadata: map[string]string{
					"evidence": "proximity",
					"distance": strconv.Itoa(distance),
				},
			}, true
		}
	}
	return types.Relationship{}, false
}
