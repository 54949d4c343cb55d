// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve links reference-only mentions to their antecedents and
// infers typed relationships between proximate extractions.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/extract-engine/internal/textsim"
	"github.com/pdiddy/extract-engine/pkg/types"
)

// Pronoun sets, checked lowercase.
var (
	personPronouns = map[string]bool{
		"he": true, "him": true, "his": true,
		"she": true, "her": true, "hers": true,
	}
	groupPronouns = map[string]bool{
		"it": true, "its": true,
		"they": true, "them": true, "their": true, "theirs": true,
	}
)

// Classes a person pronoun may resolve to, and classes it/they may resolve to.
var (
	personClasses = map[string]bool{
		types.ClassPerson: true, "name": true, "individual": true,
	}
	entityClasses = map[string]bool{
		types.ClassOrganization: true, "company": true,
		types.ClassGroup: true, "entity": true, "people": true,
	}
)

// Definite-article prefixes that mark a coreference mention.
var definiteArticles = []string{"the ", "this ", "that ", "these ", "those "}

// ReferenceResolver links pronouns, abbreviations, definite mentions, and
// partial names to earlier extractions. Resolution is a pure, deterministic
// function of (extractions, text): identical inputs always yield identical
// references.
type ReferenceResolver struct {
	fuzzyThreshold float64
	maxDistance    int
}

// NewReferenceResolver builds a resolver. Zero config fields take the
// defaults (threshold 0.8, max distance 500); invalid values are a
// configuration error.
func NewReferenceResolver(cfg types.ResolverConfig) (*ReferenceResolver, error) {
	t := cfg.FuzzyThreshold
	if t == 0 {
		t = types.DefaultFuzzyThreshold
	}
	if t < 0 || t > 1 {
		return nil, fmt.Errorf("resolve: fuzzy threshold %v outside (0, 1]", t)
	}
	d := cfg.MaxDistance
	if d == 0 {
		d = types.DefaultMaxDistance
	}
	if d < 0 {
		return nil, fmt.Errorf("resolve: max distance %d is negative", d)
	}
	return &ReferenceResolver{fuzzyThreshold: t, maxDistance: d}, nil
}

// Resolve finds an antecedent for every reference-like extraction. For each
// reference the nearest compatible earlier extraction within the distance
// budget wins; ties break toward the earlier list index. A reference with no
// qualifying candidate produces nothing. The only mutation is setting
// refers_to/referent_id/referent_class attributes on the reference itself.
func (r *ReferenceResolver) Resolve(extractions []*types.Extraction, text string) []types.Reference {
	ordered := sortByPosition(extractions)

	var refs []types.Reference
	for i, ext := range ordered {
		kind, ok := Classify(ext)
		if !ok {
			continue
		}

		target, gap := r.findReferent(ext, kind, ordered[:i])
		if target == nil {
			continue
		}

		ext.SetAttribute(types.AttrRefersTo, target.Text)
		ext.SetAttribute(types.AttrReferentID, target.ID)
		ext.SetAttribute(types.AttrReferentClass, target.Class)

		refs = append(refs, types.Reference{
			SourceID:   ext.ID,
			TargetID:   target.ID,
			Kind:       kind,
			Confidence: confidence(kind, gap),
			Distance:   gap,
		})
	}
	return refs
}

// Classify decides whether an extraction is a reference-only mention and of
// what kind. Checked in order: pronoun, abbreviation, definite coreference,
// single-token person name.
func Classify(ext *types.Extraction) (types.ReferenceKind, bool) {
	text := ext.Text
	lower := strings.ToLower(text)

	if personPronouns[lower] || groupPronouns[lower] {
		return types.RefPronoun, true
	}
	if isAbbreviation(text) {
		return types.RefAbbreviation, true
	}
	for _, article := range definiteArticles {
		if strings.HasPrefix(lower, article) {
			return types.RefCoreference, true
		}
	}
	if ext.Class == types.ClassPerson && !strings.ContainsRune(text, ' ') && len(text) > 2 {
		return types.RefPartial, true
	}
	return "", false
}

// isAbbreviation reports whether text is a 2-4 letter all-uppercase token.
func isAbbreviation(text string) bool {
	if len(text) < 2 || len(text) > 4 {
		return false
	}
	for _, c := range text {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// findReferent returns the nearest compatible earlier extraction within the
// distance budget, and the character gap to it. Candidates are scanned in
// position order so an equal gap keeps the earlier index.
func (r *ReferenceResolver) findReferent(ref *types.Extraction, kind types.ReferenceKind, candidates []*types.Extraction) (*types.Extraction, int) {
	if ref.Span == nil {
		return nil, 0
	}

	var best *types.Extraction
	bestGap := -1
	for _, cand := range candidates {
		if cand.Span == nil || cand.Span.Start >= ref.Span.Start {
			continue
		}
		gap := ref.Span.Start - cand.Span.End
		if gap < 0 {
			gap = 0
		}
		if gap > r.maxDistance {
			continue
		}
		if !r.compatible(ref, kind, cand) {
			continue
		}
		if best == nil || gap < bestGap {
			best = cand
			bestGap = gap
		}
	}
	return best, bestGap
}

// compatible applies the per-kind type compatibility rules.
func (r *ReferenceResolver) compatible(ref *types.Extraction, kind types.ReferenceKind, cand *types.Extraction) bool {
	switch kind {
	case types.RefPronoun:
		lower := strings.ToLower(ref.Text)
		if personPronouns[lower] {
			return personClasses[cand.Class]
		}
		return entityClasses[cand.Class]
	case types.RefAbbreviation:
		return initialsMatch(ref.Text, cand.Text)
	case types.RefCoreference:
		return definiteMatch(ref.Text, cand)
	case types.RefPartial:
		return r.partialNameMatch(ref.Text, cand.Text)
	}
	return false
}

// initialsMatch reports whether abbrev spells the initials of full, either
// over every word or over the capitalized words longer than two characters
// ("USA" for "United States of America").
func initialsMatch(abbrev, full string) bool {
	words := strings.Fields(full)
	if len(words) == 0 {
		return false
	}
	upper := strings.ToUpper(abbrev)

	var all strings.Builder
	for _, w := range words {
		all.WriteString(strings.ToUpper(w[:1]))
	}
	if all.String() == upper {
		return true
	}

	var important strings.Builder
	for _, w := range words {
		if len(w) > 2 && w[0] >= 'A' && w[0] <= 'Z' {
			important.WriteByte(w[0])
		}
	}
	return important.String() == upper
}

// definiteMatch strips the definite article and checks the core against the
// candidate's text and class ("the company" matches an organization mention
// or anything containing "company").
func definiteMatch(refText string, cand *types.Extraction) bool {
	core := strings.ToLower(refText)
	for _, article := range definiteArticles {
		if strings.HasPrefix(core, article) {
			core = core[len(article):]
			break
		}
	}
	if core == "" {
		return false
	}
	if strings.Contains(strings.ToLower(cand.Text), core) {
		return true
	}
	return cand.Class != "" && strings.Contains(strings.ToLower(cand.Class), core)
}

// partialNameMatch reports whether the single-token partial appears in the
// candidate's word list, verbatim or above the fuzzy threshold.
func (r *ReferenceResolver) partialNameMatch(partial, full string) bool {
	lower := strings.ToLower(partial)
	for _, word := range strings.Fields(full) {
		w := strings.ToLower(word)
		if w == lower {
			return true
		}
		if textsim.Ratio(w, lower) >= r.fuzzyThreshold {
			return true
		}
	}
	return false
}

// confidence scores a resolution: base 0.5, plus a proximity bonus, plus a
// kind bonus for the more constrained reference kinds, capped at 1.
func confidence(kind types.ReferenceKind, gap int) float64 {
	c := 0.5
	switch {
	case gap < 100:
		c += 0.3
	case gap < 500:
		c += 0.2
	case gap < 1000:
		c += 0.1
	}
	switch kind {
	case types.RefAbbreviation:
		c += 0.2
	case types.RefPartial:
		c += 0.15
	}
	return min(c, 1.0)
}

// sortByPosition returns the extractions ordered by span start; ungrounded
// extractions sort last in their original relative order. The input slice is
// not modified.
func sortByPosition(extractions []*types.Extraction) []*types.Extraction {
	ordered := make([]*types.Extraction, len(extractions))
	copy(ordered, extractions)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].Span, ordered[j].Span
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return si.Start < sj.Start
		}
	})
	return ordered
}
