// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"testing"

	"github.com/pdiddy/extract-engine/pkg/types"
)

func newMerger(t *testing.T, cfg types.MergeConfig) *Merger {
	t.Helper()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func grounded(id, class, text string, start int, status types.AlignmentStatus) *types.Extraction {
	return &types.Extraction{
		ID:        id,
		Class:     class,
		Text:      text,
		Span:      &types.Span{Start: start, End: start + len(text)},
		Alignment: status,
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(types.MergeConfig{DedupThreshold: 1.5}); err == nil {
		t.Error("threshold above 1 should be rejected")
	}
	if _, err := New(types.MergeConfig{Policy: "newest_wins"}); err == nil {
		t.Error("unknown policy should be rejected")
	}
}

func TestMergeCollapsesNearDuplicates(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass1 := []*types.Extraction{
		grounded("a", types.ClassPerson, "John Smith", 0, types.AlignExact),
	}
	pass2 := []*types.Extraction{
		grounded("b", types.ClassPerson, "John Smith", 0, types.AlignExact),
	}

	merged := m.Merge(pass1, pass2)
	if len(merged) != 1 {
		t.Fatalf("got %d extractions, want 1", len(merged))
	}
	if merged[0].ID != "a" {
		t.Errorf("survivor = %s, want first-pass extraction a", merged[0].ID)
	}
}

func TestMergeKeepsDistinctExtractions(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass := []*types.Extraction{
		grounded("a", types.ClassPerson, "John Smith", 0, types.AlignExact),
		grounded("b", types.ClassOrganization, "TechCorp", 19, types.AlignExact),
		grounded("c", types.ClassDate, "2019", 31, types.AlignExact),
	}

	if merged := m.Merge(pass); len(merged) != 3 {
		t.Errorf("got %d extractions, want 3", len(merged))
	}
}

func TestMergeSameTextDifferentClassKept(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass := []*types.Extraction{
		grounded("a", types.ClassPerson, "Jordan", 0, types.AlignExact),
		grounded("b", types.ClassLocation, "Jordan", 100, types.AlignExact),
	}

	if merged := m.Merge(pass); len(merged) != 2 {
		t.Errorf("got %d extractions, want 2 (class differs)", len(merged))
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass := []*types.Extraction{
		grounded("a", types.ClassPerson, "John Smith", 0, types.AlignExact),
		grounded("b", types.ClassOrganization, "TechCorp", 19, types.AlignExact),
	}

	once := m.Merge(pass)
	twice := m.Merge(once)
	if len(twice) != len(once) {
		t.Fatalf("re-merge changed count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("re-merge changed order at %d: %s -> %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestMergeAttributeUnion(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	winner := grounded("a", types.ClassPerson, "John Smith", 0, types.AlignExact)
	winner.SetAttribute("role", "founder")
	loser := grounded("b", types.ClassPerson, "John Smith", 0, types.AlignFuzzy)
	loser.SetAttribute("role", "ceo")
	loser.SetAttribute("tenure", "2019")

	merged := m.Merge([]*types.Extraction{winner}, []*types.Extraction{loser})
	if len(merged) != 1 {
		t.Fatalf("got %d extractions, want 1", len(merged))
	}
	got := merged[0]
	if got.ID != "a" {
		t.Fatalf("survivor = %s, want exact-aligned a", got.ID)
	}
	if got.Attributes["role"] != "founder" {
		t.Errorf("role = %q, winner's value should take precedence", got.Attributes["role"])
	}
	if got.Attributes["tenure"] != "2019" {
		t.Errorf("tenure = %q, loser-only attribute should be carried over", got.Attributes["tenure"])
	}
}

func TestMergePolicyOrdering(t *testing.T) {
	exactPoor := grounded("exact", types.ClassPerson, "John Smith", 0, types.AlignExact)
	fuzzyRich := grounded("rich", types.ClassPerson, "John Smith", 0, types.AlignFuzzy)
	fuzzyRich.SetAttribute("role", "ceo")
	fuzzyRich.SetAttribute("tenure", "2019")

	tests := []struct {
		name   string
		policy types.MergePolicy
		want   string
	}{
		{name: "alignment first", policy: types.PolicyAlignmentFirst, want: "exact"},
		{name: "attributes first", policy: types.PolicyAttributesFirst, want: "rich"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMerger(t, types.MergeConfig{Policy: tt.policy})
			// Fresh copies: Merge mutates attribute maps.
			a := *exactPoor
			b := *fuzzyRich
			b.Attributes = map[string]string{"role": "ceo", "tenure": "2019"}
			a.Attributes = nil

			merged := m.Merge([]*types.Extraction{&a}, []*types.Extraction{&b})
			if len(merged) != 1 {
				t.Fatalf("got %d extractions, want 1", len(merged))
			}
			if merged[0].ID != tt.want {
				t.Errorf("survivor = %s, want %s", merged[0].ID, tt.want)
			}
		})
	}
}

func TestMergeOrdersBySpanStart(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass := []*types.Extraction{
		grounded("late", types.ClassDate, "2019", 31, types.AlignExact),
		grounded("early", types.ClassPerson, "John Smith", 0, types.AlignExact),
		{ID: "ungrounded", Class: types.ClassTitle, Text: "CEO"},
	}

	merged := m.Merge(pass)
	wantOrder := []string{"early", "late", "ungrounded"}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, merged[i].ID, want)
		}
	}
}

func TestMergeSkipsEmptyPasses(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	pass := []*types.Extraction{
		grounded("a", types.ClassPerson, "John Smith", 0, types.AlignExact),
	}

	merged := m.Merge(nil, pass, nil, []*types.Extraction{})
	if len(merged) != 1 || merged[0].ID != "a" {
		t.Errorf("got %+v, want the single extraction from the non-empty pass", merged)
	}
}

func TestMergeSpanOverlapCollapses(t *testing.T) {
	m := newMerger(t, types.MergeConfig{})

	// Texts differ below the similarity threshold, but the spans cover
	// mostly the same characters.
	a := grounded("a", types.ClassOrganization, "TechCorp Inc", 19, types.AlignExact)
	b := grounded("b", types.ClassOrganization, "TechCorp", 19, types.AlignExact)

	merged := m.Merge([]*types.Extraction{a}, []*types.Extraction{b})
	if len(merged) != 1 {
		t.Errorf("got %d extractions, want overlap collapse to 1", len(merged))
	}
}
