// Package token normalizes free text into search terms and builds FTS5
// match expressions from them. Every component that reasons about text
// (scoring, dedup, fact comparison, neighborhood hints) goes through
// ExtractTerms so they all agree on what a token is.
package token

import "strings"

// MaxQueryTerms caps how many tokens participate in one FTS query.
const MaxQueryTerms = 12

// stopwords are dropped during extraction: articles, prepositions, and
// code-structure words that appear in nearly every record.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "of": true,
	"for": true, "with": true, "from": true, "by": true, "as": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"src": true, "lib": true, "test": true, "tests": true,
	"main": true, "index": true, "file": true, "files": true,
	"use": true, "uses": true, "using": true, "used": true,
}

// ExtractTerms lowercases text, splits on non-alphanumeric runs, drops
// tokens shorter than 2 characters and stopwords, and deduplicates
// preserving first-seen order.
func ExtractTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// BuildMatchQuery turns a token list into an FTS5 MATCH expression:
// the first MaxQueryTerms tokens, each quoted, joined with OR. Returns
// ok=false for an empty token list; callers must treat that as "no
// search possible", not as match-everything.
func BuildMatchQuery(terms []string) (query string, ok bool) {
	if len(terms) == 0 {
		return "", false
	}
	if len(terms) > MaxQueryTerms {
		terms = terms[:MaxQueryTerms]
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR "), true
}

// Set materializes a term list as a membership set.
func Set(terms []string) map[string]bool {
	s := make(map[string]bool, len(terms))
	for _, t := range terms {
		s[t] = true
	}
	return s
}

// Jaccard computes set similarity |A∩B| / |A∪B|. Two empty sets are
// considered identical (1.0).
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
