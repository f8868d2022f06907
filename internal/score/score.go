// Package score ranks candidate records against a query. The score is
// the sum of five independently clamped signals: recency, tag
// exactness, update frequency, certainty tier, and the raw FTS rank.
package score

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mnemo-sh/mnemo/internal/model"
)

const (
	recencyMax     = 30.0
	recencyWindow  = 180.0 // days until recency decays to zero
	tagExactBonus  = 18.0
	tagSubstrBonus = 8.0
	freqCap        = 10
	freqWeight     = 2.0
	rankScale      = 10.0
	rankMax        = 30.0

	// HintBonus boosts records matched via path/tag hints so that a
	// record found by both hint and index outranks one found by only
	// one signal.
	HintBonus = 12.0
)

var certaintyWeight = map[string]float64{
	model.CertaintyVerified:    20,
	model.CertaintyInferred:    10,
	model.CertaintySpeculative: 2,
}

// Candidate pairs a record with its raw FTS rank (more negative = more
// relevant; NaN when the row was not index-matched).
type Candidate struct {
	Record model.Record
	Rank   float64
}

// Score computes the ranking score for one candidate at the given
// moment. Deterministic; rounded to 3 decimals.
func Score(c Candidate, queryTokens []string, now time.Time) float64 {
	s := recency(c.Record.UpdatedAt, now) +
		tagMatch(c.Record.Tags, queryTokens) +
		frequency(c.Record.UpdateCount) +
		certainty(c.Record.Certainty) +
		indexRank(c.Rank)
	return math.Round(s*1000) / 1000
}

// Rank scores all candidates and sorts them strictly descending. Ties
// keep the underlying query order, so callers wanting a deterministic
// tie-break order the fetch by recency.
func Rank(cands []Candidate, queryTokens []string, now time.Time) []Scored {
	out := make([]Scored, len(cands))
	for i, c := range cands {
		out[i] = Scored{Record: c.Record, Score: Score(c, queryTokens, now)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Scored is a record with its final score attached.
type Scored struct {
	Record model.Record `json:"record"`
	Score  float64      `json:"score"`
	// FoundVia records which signals produced the match ("index",
	// "path-hint"); populated by the neighborhood merge.
	FoundVia []string `json:"found_via,omitempty"`
}

// recency decays linearly from recencyMax (updated now) to 0 (updated
// recencyWindow days ago or earlier). Zero-value timestamps, the scan
// result of an unparseable column, score 0.
func recency(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	days := now.Sub(updatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	s := recencyMax * (1 - days/recencyWindow)
	if s < 0 {
		return 0
	}
	return s
}

func tagMatch(tags string, queryTokens []string) float64 {
	if tags == "" || len(queryTokens) == 0 {
		return 0
	}
	best := 0.0
	for _, tag := range model.SplitTags(tags) {
		lt := strings.ToLower(tag)
		for _, q := range queryTokens {
			q = strings.ToLower(q)
			if lt == q {
				return tagExactBonus
			}
			if strings.Contains(lt, q) && best < tagSubstrBonus {
				best = tagSubstrBonus
			}
		}
	}
	return best
}

func frequency(updateCount int) float64 {
	if updateCount > freqCap {
		updateCount = freqCap
	}
	if updateCount < 0 {
		updateCount = 0
	}
	return float64(updateCount) * freqWeight
}

func certainty(c string) float64 {
	// Column values are canonical after the read boundary, but an old
	// row read through a stale schema may still carry an alias.
	if canon, err := model.NormalizeCertainty(c); err == nil {
		return certaintyWeight[canon]
	}
	return 0
}

// indexRank converts the FTS5 rank (more negative = better) into a
// bounded positive signal.
func indexRank(rank float64) float64 {
	if math.IsNaN(rank) {
		return 0
	}
	s := -rank * rankScale
	if s < 0 {
		return 0
	}
	if s > rankMax {
		return rankMax
	}
	return s
}
