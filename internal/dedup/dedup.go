// Package dedup finds exact and near-duplicate records. Near-duplicate
// detection is bounded by an inverted postings index built lazily over
// the working set, so a doctor sweep stays well under full pairwise
// cost on large corpora.
package dedup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mnemo-sh/mnemo/internal/model"
	"github.com/mnemo-sh/mnemo/internal/token"
)

// DefaultThreshold is the Jaccard similarity at or above which two
// records are reported as near-duplicates. Tunable via config.
const DefaultThreshold = 0.78

// Candidate-generation bounds. Each record looks up partners through
// the postings lists of at most lookupTokens of its tokens; each list
// holds at most postingsPerToken entries; at most maxCandidates
// partners are compared per record.
const (
	lookupTokens     = 12
	maxCandidates    = 120
	postingsPerToken = 200
)

// Finding reports one duplicate pair with a ready-to-run remediation.
type Finding struct {
	Kind        string  `json:"kind"` // "exact" or "near"
	ID          int64   `json:"id"`
	OtherID     int64   `json:"other_id"`
	Similarity  float64 `json:"similarity"`
	Summary     string  `json:"summary"`
	Remediation string  `json:"remediation"`
}

// GroupKey is the structural-equality key for exact duplicates: two
// active records with the same content, tags, and context are
// redundant copies of each other.
func GroupKey(content, tags, context string) string {
	return content + "\x1f" + tags + "\x1f" + context
}

// FindExact returns, for every record whose (content, tags, context)
// triple equals an earlier record's, a finding referencing the first
// occurrence. Input order decides which record is kept.
func FindExact(records []model.Record) []Finding {
	first := make(map[string]int64, len(records))
	var findings []Finding
	for _, r := range records {
		key := GroupKey(r.Content, r.Tags, r.Context)
		if keep, ok := first[key]; ok {
			findings = append(findings, Finding{
				Kind:        "exact",
				ID:          r.ID,
				OtherID:     keep,
				Similarity:  1.0,
				Summary:     fmt.Sprintf("record %d is an exact duplicate of %d", r.ID, keep),
				Remediation: fmt.Sprintf("mnemo rm %d", r.ID),
			})
			continue
		}
		first[key] = r.ID
	}
	return findings
}

// FindNear scans records in order and reports pairs whose combined
// content+tags+context token sets have Jaccard similarity >= threshold.
// Candidate partners for each record are generated from the postings
// index before the record's own tokens are inserted, so every pair is
// compared exactly once. Pairs already in the same exact-duplicate
// group are skipped to avoid double-reporting.
func FindNear(records []model.Record, threshold float64) []Finding {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	type entry struct {
		rec   model.Record
		set   map[string]bool
		group string
	}
	entries := make([]entry, 0, len(records))
	postings := make(map[string][]int)
	var findings []Finding

	for _, r := range records {
		terms := token.ExtractTerms(strings.Join([]string{r.Content, r.Tags, r.Context}, " "))
		set := token.Set(terms)
		group := GroupKey(r.Content, r.Tags, r.Context)
		idx := len(entries)

		// Candidate lookup over at most lookupTokens postings lists.
		seen := make(map[int]bool)
		var cands []int
		lookup := terms
		if len(lookup) > lookupTokens {
			lookup = lookup[:lookupTokens]
		}
	candidateScan:
		for _, t := range lookup {
			for _, other := range postings[t] {
				if !seen[other] {
					seen[other] = true
					cands = append(cands, other)
					if len(cands) >= maxCandidates {
						break candidateScan
					}
				}
			}
		}
		sort.Ints(cands)

		for _, other := range cands {
			o := entries[other]
			if o.group == group {
				continue // exact duplicates are reported separately
			}
			sim := token.Jaccard(set, o.set)
			if sim < threshold {
				continue
			}
			findings = append(findings, Finding{
				Kind:        "near",
				ID:          r.ID,
				OtherID:     o.rec.ID,
				Similarity:  sim,
				Summary:     fmt.Sprintf("records %d and %d are near-duplicates (similarity %.2f)", r.ID, o.rec.ID, sim),
				Remediation: fmt.Sprintf("mnemo deprecate %d --superseded-by %d", r.ID, o.rec.ID),
			})
		}

		// Insert after lookup so this record never pairs with itself
		// and each pair is seen once.
		for _, t := range terms {
			if len(postings[t]) < postingsPerToken {
				postings[t] = append(postings[t], idx)
			}
		}
		entries = append(entries, entry{rec: r, set: set, group: group})
	}

	return findings
}
