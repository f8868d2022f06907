// Package neighborhood turns a set of file paths into tag/path hints
// and search terms, so the suggest and sweep commands can find
// topically related records without an explicit query.
package neighborhood

import (
	"path"
	"strings"

	"github.com/mnemo-sh/mnemo/internal/score"
	"github.com/mnemo-sh/mnemo/internal/token"
)

// ignoredSegments are directory names too generic to serve as tag
// hints.
var ignoredSegments = map[string]bool{
	"src": true, "lib": true, "app": true, "apps": true,
	"test": true, "tests": true,
}

// Neighborhood holds the hints and terms derived from a path set.
type Neighborhood struct {
	PathHints []string `json:"path_hints"`
	TagHints  []string `json:"tag_hints"`
	Terms     []string `json:"terms"`
}

// Derive computes the neighborhood of the given file paths. Path
// separators are normalized and a leading "./" is stripped. Per path
// it yields the containing directory (with trailing slash) and a
// directory+extension glob as path hints, and the directory segments
// outside the ignore set as tag hints. Hints are deduplicated
// case-insensitively, then tokenized into search terms.
func Derive(paths []string) Neighborhood {
	var n Neighborhood
	seenPath := make(map[string]bool)
	seenTag := make(map[string]bool)

	for _, p := range paths {
		p = strings.ReplaceAll(p, "\\", "/")
		p = strings.TrimPrefix(p, "./")
		if p == "" {
			continue
		}

		dir := path.Dir(p)
		if dir != "." && dir != "/" {
			addHint(&n.PathHints, seenPath, dir+"/")
			if ext := path.Ext(p); ext != "" {
				addHint(&n.PathHints, seenPath, dir+"/*"+ext)
			}
			for _, seg := range strings.Split(dir, "/") {
				if seg == "" || seg == "." || seg == ".." || ignoredSegments[strings.ToLower(seg)] {
					continue
				}
				addHint(&n.TagHints, seenTag, seg)
			}
		}
	}

	n.Terms = token.ExtractTerms(strings.Join(append(append([]string{}, n.PathHints...), n.TagHints...), " "))
	return n
}

func addHint(hints *[]string, seen map[string]bool, hint string) {
	key := strings.ToLower(hint)
	if seen[key] {
		return
	}
	seen[key] = true
	*hints = append(*hints, hint)
}

// Merge combines hint-matched and index-matched result sets for the
// suggest flow. A record present in both keeps its higher raw score
// plus the hint bonus, and the found-via labels are unioned; a record
// found only via hints still gets the bonus so hint matches are not
// buried under index matches.
func Merge(indexHits, hintHits []score.Scored) []score.Scored {
	byID := make(map[int64]int, len(indexHits))
	merged := make([]score.Scored, 0, len(indexHits)+len(hintHits))

	for _, h := range indexHits {
		h.FoundVia = []string{"index"}
		byID[h.Record.ID] = len(merged)
		merged = append(merged, h)
	}
	for _, h := range hintHits {
		if i, ok := byID[h.Record.ID]; ok {
			if h.Score > merged[i].Score {
				merged[i].Score = h.Score
			}
			merged[i].Score += score.HintBonus
			merged[i].FoundVia = appendLabel(merged[i].FoundVia, "path-hint")
			continue
		}
		h.Score += score.HintBonus
		h.FoundVia = []string{"path-hint"}
		merged = append(merged, h)
	}
	return merged
}

func appendLabel(labels []string, label string) []string {
	for _, l := range labels {
		if l == label {
			return labels
		}
	}
	return append(labels, label)
}
