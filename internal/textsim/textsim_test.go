// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsim

import "testing"

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64 // exact expectation, or -1 for "just check bounds"
	}{
		{name: "identical", a: "TechCorp", b: "TechCorp", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "TechCorp", b: "", want: 0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
		{name: "close variants", a: "John Smith", b: "Jon Smith", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if got < 0 || got > 1 {
				t.Fatalf("Ratio(%q, %q) = %v, outside [0, 1]", tt.a, tt.b, got)
			}
			if tt.want >= 0 && got != tt.want {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if tt.want < 0 && got < 0.8 {
				t.Errorf("Ratio(%q, %q) = %v, want >= 0.8", tt.a, tt.b, got)
			}
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "Jon Smith"},
		{"TechCorp", "TechCorp Inc"},
		{"the company", "a company"},
	}
	for _, p := range pairs {
		if Ratio(p[0], p[1]) != Ratio(p[1], p[0]) {
			t.Errorf("Ratio(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestSimilar(t *testing.T) {
	if !Similar("John Smith", "John Smith", 1.0) {
		t.Error("identical strings should clear any threshold")
	}
	if Similar("abc", "xyz", 0.1) {
		t.Error("disjoint strings should clear no positive threshold")
	}
}
