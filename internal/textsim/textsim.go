// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textsim computes character-level similarity ratios shared by the
// aligner, the reference resolver, and the pass merger.
package textsim

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Ratio returns a similarity ratio in [0, 1] for two strings: twice the
// number of matching characters divided by the total length. Equal strings
// score 1; strings with no characters in common score 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // deterministic: never bail out early

	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len(d.Text)
		}
	}
	return 2 * float64(matched) / float64(len(a)+len(b))
}

// Similar reports whether the ratio of a and b clears threshold.
func Similar(a, b string, threshold float64) bool {
	return Ratio(a, b) >= threshold
}
