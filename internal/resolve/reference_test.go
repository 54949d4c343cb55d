// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/extract-engine/pkg/types"
)

func newRefResolver(t *testing.T, cfg types.ResolverConfig) *ReferenceResolver {
	t.Helper()
	r, err := NewReferenceResolver(cfg)
	if err != nil {
		t.Fatalf("NewReferenceResolver: %v", err)
	}
	return r
}

func ext(id, class, text string, start, end int) *types.Extraction {
	return &types.Extraction{
		ID:    id,
		Class: class,
		Text:  text,
		Span:  &types.Span{Start: start, End: end},
	}
}

func TestNewReferenceResolverValidation(t *testing.T) {
	if _, err := NewReferenceResolver(types.ResolverConfig{FuzzyThreshold: 2}); err == nil {
		t.Error("threshold above 1 should be rejected")
	}
	if _, err := NewReferenceResolver(types.ResolverConfig{MaxDistance: -1}); err == nil {
		t.Error("negative max distance should be rejected")
	}
}

func TestResolvePronoun(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "John Smith founded TechCorp. He is the CEO."

	extractions := []*types.Extraction{
		ext("e1", types.ClassPerson, "John Smith", 0, 10),
		ext("e2", types.ClassOrganization, "TechCorp", 19, 27),
		ext("e3", types.ClassPerson, "He", 29, 31),
	}

	refs := r.Resolve(extractions, text)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1: %+v", len(refs), refs)
	}

	ref := refs[0]
	if ref.SourceID != "e3" || ref.TargetID != "e1" {
		t.Errorf("resolved %s -> %s, want e3 -> e1", ref.SourceID, ref.TargetID)
	}
	if ref.Kind != types.RefPronoun {
		t.Errorf("kind = %s, want pronoun", ref.Kind)
	}
	if ref.Distance != 19 {
		t.Errorf("distance = %d, want 19", ref.Distance)
	}
	if math.Abs(ref.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %v, want 0.8", ref.Confidence)
	}

	he := extractions[2]
	if he.Attributes[types.AttrRefersTo] != "John Smith" {
		t.Errorf("refers_to = %q, want John Smith", he.Attributes[types.AttrRefersTo])
	}
	if he.Attributes[types.AttrReferentID] != "e1" {
		t.Errorf("referent_id = %q, want e1", he.Attributes[types.AttrReferentID])
	}
	if he.Attributes[types.AttrReferentClass] != types.ClassPerson {
		t.Errorf("referent_class = %q, want person", he.Attributes[types.AttrReferentClass])
	}
}

func TestResolveGroupPronoun(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "TechCorp announced layoffs. They cited costs."

	extractions := []*types.Extraction{
		ext("e1", types.ClassOrganization, "TechCorp", 0, 8),
		ext("e2", types.ClassGroup, "They", 28, 32),
	}

	refs := r.Resolve(extractions, text)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1", len(refs))
	}
	if refs[0].TargetID != "e1" || refs[0].Kind != types.RefPronoun {
		t.Errorf("got %+v, want pronoun -> e1", refs[0])
	}
}

func TestResolveAbbreviation(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "The United States of America signed the treaty. The USA ratified it."

	extractions := []*types.Extraction{
		ext("e1", types.ClassLocation, "United States of America", 4, 28),
		ext("e2", types.ClassLocation, "USA", 52, 55),
	}

	refs := r.Resolve(extractions, text)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1: %+v", len(refs), refs)
	}
	if refs[0].Kind != types.RefAbbreviation {
		t.Errorf("kind = %s, want abbreviation", refs[0].Kind)
	}
	// Base 0.5 + proximity 0.3 + abbreviation bonus 0.2, capped at 1.
	if math.Abs(refs[0].Confidence-1.0) > 1e-9 {
		t.Errorf("confidence = %v, want 1.0", refs[0].Confidence)
	}
}

func TestResolvePartialName(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "John Smith founded TechCorp. Smith remains chairman."

	extractions := []*types.Extraction{
		ext("e1", types.ClassPerson, "John Smith", 0, 10),
		ext("e2", types.ClassPerson, "Smith", 29, 34),
	}

	refs := r.Resolve(extractions, text)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1: %+v", len(refs), refs)
	}
	if refs[0].Kind != types.RefPartial || refs[0].TargetID != "e1" {
		t.Errorf("got %+v, want partial -> e1", refs[0])
	}
	// Base 0.5 + proximity 0.3 + partial bonus 0.15.
	if math.Abs(refs[0].Confidence-0.95) > 1e-9 {
		t.Errorf("confidence = %v, want 0.95", refs[0].Confidence)
	}
}

func TestResolveDefiniteReference(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "TechCorp reported earnings. The company beat estimates."

	extractions := []*types.Extraction{
		ext("e1", "company", "TechCorp", 0, 8),
		ext("e2", "company", "The company", 28, 39),
	}

	refs := r.Resolve(extractions, text)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1: %+v", len(refs), refs)
	}
	if refs[0].Kind != types.RefCoreference || refs[0].TargetID != "e1" {
		t.Errorf("got %+v, want coreference -> e1", refs[0])
	}
}

func TestResolveRespectsMaxDistance(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{MaxDistance: 10})

	extractions := []*types.Extraction{
		ext("e1", types.ClassPerson, "John Smith", 0, 10),
		ext("e2", types.ClassPerson, "He", 100, 102),
	}

	if refs := r.Resolve(extractions, ""); len(refs) != 0 {
		t.Errorf("got %d references beyond max distance, want 0", len(refs))
	}
}

func TestResolveNearestCandidateWins(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})

	extractions := []*types.Extraction{
		ext("far", types.ClassPerson, "John Smith", 0, 10),
		ext("near", types.ClassPerson, "Jane Doe", 40, 48),
		ext("ref", types.ClassPerson, "She", 60, 63),
	}

	refs := r.Resolve(extractions, "")
	if len(refs) != 1 || refs[0].TargetID != "near" {
		t.Fatalf("got %+v, want resolution to the nearer candidate", refs)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})
	text := "John Smith founded TechCorp. He is the CEO."

	build := func() []*types.Extraction {
		return []*types.Extraction{
			ext("e1", types.ClassPerson, "John Smith", 0, 10),
			ext("e2", types.ClassOrganization, "TechCorp", 19, 27),
			ext("e3", types.ClassPerson, "He", 29, 31),
		}
	}

	first := r.Resolve(build(), text)
	second := r.Resolve(build(), text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResolveUngroundedReferenceSkipped(t *testing.T) {
	r := newRefResolver(t, types.ResolverConfig{})

	extractions := []*types.Extraction{
		ext("e1", types.ClassPerson, "John Smith", 0, 10),
		{ID: "e2", Class: types.ClassPerson, Text: "He"},
	}

	if refs := r.Resolve(extractions, ""); len(refs) != 0 {
		t.Errorf("ungrounded reference produced %d references, want 0", len(refs))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		ext      *types.Extraction
		wantKind types.ReferenceKind
		wantOK   bool
	}{
		{name: "pronoun", ext: &types.Extraction{Text: "He", Class: types.ClassPerson}, wantKind: types.RefPronoun, wantOK: true},
		{name: "possessive pronoun", ext: &types.Extraction{Text: "their", Class: types.ClassGroup}, wantKind: types.RefPronoun, wantOK: true},
		{name: "abbreviation", ext: &types.Extraction{Text: "IBM", Class: types.ClassOrganization}, wantKind: types.RefAbbreviation, wantOK: true},
		{name: "too long for abbreviation", ext: &types.Extraction{Text: "NASDAQ", Class: types.ClassOrganization}, wantOK: false},
		{name: "definite article", ext: &types.Extraction{Text: "the company", Class: types.ClassOrganization}, wantKind: types.RefCoreference, wantOK: true},
		{name: "single-token person", ext: &types.Extraction{Text: "Smith", Class: types.ClassPerson}, wantKind: types.RefPartial, wantOK: true},
		{name: "full name is not a reference", ext: &types.Extraction{Text: "John Smith", Class: types.ClassPerson}, wantOK: false},
		{name: "short person token", ext: &types.Extraction{Text: "Jo", Class: types.ClassPerson}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.ext)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}
