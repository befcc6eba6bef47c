// Package similarity scores how close two extracted values are, as the percentage of matching
// characters found by Ratcliff/Obershelp sequence matching.
package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum percentage for a fuzzy candidate to be accepted.
const DefaultThreshold = 80.0

// Ratio compares a and b case-insensitively and returns a value in [0, 100].
// Either side empty scores 0.
func Ratio(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio() * 100
}

// Candidate is a scored fuzzy match.
type Candidate struct {
	Value string
	Score float64
}

// Best scores every candidate against want and returns the highest. Ties keep the earliest.
func Best(want string, candidates []string, score func(a, b string) float64) (Candidate, bool) {
	if score == nil {
		score = Ratio
	}
	var best Candidate
	found := false
	for _, c := range candidates {
		s := score(want, c)
		if !found || s > best.Score {
			best = Candidate{Value: c, Score: s}
			found = true
		}
	}
	return best, found
}
