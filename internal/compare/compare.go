// Package compare implements the fact-comparison primitive behind the
// verify and diff operations: token-set similarity plus negation
// mismatch detection between two text spans.
package compare

import (
	"regexp"

	"github.com/mnemo-sh/mnemo/internal/token"
)

// DefaultConflictThreshold is the similarity floor below which two
// spans are flagged as conflicting. Tunable via config.
const DefaultConflictThreshold = 0.35

// maxTermDiff caps the added/removed term lists in a Result.
const maxTermDiff = 12

var negationRe = regexp.MustCompile(`(?i)\b(not|no|never|without|cannot|can't)\b`)

// Result describes how a candidate span relates to a stored one.
type Result struct {
	Similarity       float64  `json:"similarity"`
	Conflict         bool     `json:"conflict"`
	NegationMismatch bool     `json:"negation_mismatch"`
	AddedTerms       []string `json:"added_terms,omitempty"`
	RemovedTerms     []string `json:"removed_terms,omitempty"`
}

// Facts compares stored text against candidate text using the default
// conflict threshold.
func Facts(stored, candidate string) Result {
	return FactsAt(stored, candidate, DefaultConflictThreshold)
}

// FactsAt compares two spans with an explicit conflict threshold.
// Similarity is Jaccard over their token sets (1.0 when both are
// empty). A negation-presence mismatch forces conflict regardless of
// similarity.
func FactsAt(stored, candidate string, threshold float64) Result {
	storedTerms := token.ExtractTerms(stored)
	candTerms := token.ExtractTerms(candidate)
	storedSet := token.Set(storedTerms)
	candSet := token.Set(candTerms)

	r := Result{
		Similarity:       token.Jaccard(storedSet, candSet),
		NegationMismatch: negationRe.MatchString(stored) != negationRe.MatchString(candidate),
		AddedTerms:       diff(candTerms, storedSet),
		RemovedTerms:     diff(storedTerms, candSet),
	}
	r.Conflict = r.NegationMismatch || r.Similarity < threshold
	return r
}

// diff returns terms present in a but not in b, preserving a's order,
// capped at maxTermDiff.
func diff(a []string, b map[string]bool) []string {
	var out []string
	for _, t := range a {
		if !b[t] {
			out = append(out, t)
			if len(out) == maxTermDiff {
				break
			}
		}
	}
	return out
}
