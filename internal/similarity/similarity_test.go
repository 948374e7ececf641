package similarity

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"agaricus campestris", "agaricus campestrus", 1},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"   ", "", 1.0},
		{"abc", "", 0.0},
		{"Amanita", "amanita", 1.0},
		{"  Amanita muscaria ", "amanita muscaria", 1.0},
		{"Agaricus campestrus", "Agaricus campestris", 18.0 / 19.0},
		{"kitten", "sitting", 4.0 / 7.0},
		{"abcd", "wxyz", 0.0},
	}

	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Boletus edulis", "boletus edulus"},
		{"Cantharellus", "Cantharellus cibarius"},
		{"x", "Pleurotus ostreatus"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q/%q: %f vs %f", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %f, out of range", p[0], p[1], ab)
		}
	}
}
