// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines extraction lists from sequential passes into one
// deduplicated, position-ordered list.
package merge

import (
	"fmt"
	"sort"

	"github.com/pdiddy/extract-engine/internal/textsim"
	"github.com/pdiddy/extract-engine/pkg/types"
)

// Merger groups near-duplicate extractions across passes and keeps one
// representative per group, merging the group's attributes into it.
type Merger struct {
	threshold float64
	policy    types.MergePolicy
}

// New builds a Merger. A zero threshold takes the default (0.9) and an empty
// policy defaults to alignment-first; out-of-range thresholds and unknown
// policies are configuration errors.
func New(cfg types.MergeConfig) (*Merger, error) {
	t := cfg.DedupThreshold
	if t == 0 {
		t = types.DefaultDedupThreshold
	}
	if t < 0 || t > 1 {
		return nil, fmt.Errorf("merge: dedup threshold %v outside (0, 1]", t)
	}
	p := cfg.Policy
	if p == "" {
		p = types.PolicyAlignmentFirst
	}
	if p != types.PolicyAlignmentFirst && p != types.PolicyAttributesFirst {
		return nil, fmt.Errorf("merge: unknown merge policy %q", p)
	}
	return &Merger{threshold: t, policy: p}, nil
}

// entry tracks an extraction's provenance through the merge.
type entry struct {
	ext   *types.Extraction
	pass  int
	index int // position in the flattened input
}

// Merge concatenates the pass outputs in pass order and collapses
// near-duplicate groups to a single representative each. A nil or empty pass
// is skipped without aborting the merge. The result is ordered by span
// start; ungrounded extractions sort last in their original relative order.
func (m *Merger) Merge(passes ...[]*types.Extraction) []*types.Extraction {
	var flat []entry
	for passIdx, pass := range passes {
		for _, ext := range pass {
			if ext == nil {
				continue
			}
			flat = append(flat, entry{ext: ext, pass: passIdx, index: len(flat)})
		}
	}

	groups := m.group(flat)

	merged := make([]*types.Extraction, 0, len(groups))
	for _, g := range groups {
		merged = append(merged, m.collapse(g))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		si, sj := merged[i].Span, merged[j].Span
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return si.Start < sj.Start
		}
	})
	return merged
}

// group partitions the flattened entries greedily: each entry joins the
// first existing group containing a near-duplicate, else starts its own.
// Greedy first-match keeps grouping deterministic.
func (m *Merger) group(flat []entry) [][]entry {
	var groups [][]entry
next:
	for _, e := range flat {
		for gi, g := range groups {
			for _, member := range g {
				if m.nearDuplicate(e.ext, member.ext) {
					groups[gi] = append(groups[gi], e)
					continue next
				}
			}
		}
		groups = append(groups, []entry{e})
	}
	return groups
}

// nearDuplicate reports whether two extractions describe the same thing:
// same class and either highly similar text or majority span overlap.
func (m *Merger) nearDuplicate(a, b *types.Extraction) bool {
	if a.Class != b.Class {
		return false
	}
	if textsim.Ratio(a.Text, b.Text) >= m.threshold {
		return true
	}
	return spanOverlap(a.Span, b.Span) > 0.5
}

// spanOverlap returns the shared fraction of the smaller span, or 0 when
// either span is missing or empty.
func spanOverlap(a, b *types.Span) float64 {
	if a == nil || b == nil {
		return 0
	}
	smaller := min(a.Len(), b.Len())
	if smaller <= 0 {
		return 0
	}
	return float64(a.Overlap(*b)) / float64(smaller)
}

// collapse picks the group's representative and unions the group's
// attributes into it; the winner's own values take precedence on collision.
func (m *Merger) collapse(group []entry) *types.Extraction {
	winner := group[0]
	for _, e := range group[1:] {
		if m.better(e, winner) {
			winner = e
		}
	}

	for _, e := range group {
		if e.ext == winner.ext {
			continue
		}
		for k, v := range e.ext.Attributes {
			if _, exists := winner.ext.Attributes[k]; !exists {
				winner.ext.SetAttribute(k, v)
			}
		}
	}
	return winner.ext
}

// better reports whether candidate should replace the incumbent
// representative under the configured policy. Every comparison chain ends at
// pass index then flattened index, so selection is fully deterministic.
func (m *Merger) better(cand, inc entry) bool {
	var checks []int
	if m.policy == types.PolicyAttributesFirst {
		checks = []int{
			len(cand.ext.Attributes) - len(inc.ext.Attributes),
			statusRank(cand.ext.Alignment) - statusRank(inc.ext.Alignment),
		}
	} else {
		checks = []int{
			statusRank(cand.ext.Alignment) - statusRank(inc.ext.Alignment),
			len(cand.ext.Attributes) - len(inc.ext.Attributes),
		}
	}
	checks = append(checks, inc.pass-cand.pass, inc.index-cand.index)

	for _, c := range checks {
		if c > 0 {
			return true
		}
		if c < 0 {
			return false
		}
	}
	return false
}

// statusRank orders alignment statuses: exact beats fuzzy beats none.
func statusRank(s types.AlignmentStatus) int {
	switch s {
	case types.AlignExact:
		return 2
	case types.AlignFuzzy:
		return 1
	default:
		return 0
	}
}
