package score

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mnemo-sh/mnemo/internal/model"
)

func baseCandidate(now time.Time) Candidate {
	return Candidate{
		Record: model.Record{
			ID:          1,
			Content:     "auth uses jwt",
			Tags:        "auth,security",
			Certainty:   model.CertaintyInferred,
			UpdateCount: 0,
			UpdatedAt:   now,
		},
		Rank: math.NaN(),
	}
}

func TestScoreMonotonicInUpdateCount(t *testing.T) {
	now := time.Now().UTC()
	prev := -1.0
	for count := 0; count <= 15; count++ {
		c := baseCandidate(now)
		c.Record.UpdateCount = count
		s := Score(c, nil, now)
		assert.GreaterOrEqual(t, s, prev, "update_count %d", count)
		prev = s
	}
}

func TestScoreUpdateCountCapped(t *testing.T) {
	now := time.Now().UTC()
	at10 := baseCandidate(now)
	at10.Record.UpdateCount = 10
	at50 := baseCandidate(now)
	at50.Record.UpdateCount = 50
	assert.Equal(t, Score(at10, nil, now), Score(at50, nil, now))
}

func TestScoreNonIncreasingInAge(t *testing.T) {
	now := time.Now().UTC()
	prev := math.Inf(1)
	for days := 0; days <= 200; days += 10 {
		c := baseCandidate(now.Add(-time.Duration(days) * 24 * time.Hour))
		s := Score(c, nil, now)
		assert.LessOrEqual(t, s, prev, "age %d days", days)
		prev = s
	}
}

func TestScoreRecencyFloor(t *testing.T) {
	now := time.Now().UTC()
	old := baseCandidate(now.Add(-400 * 24 * time.Hour))
	ancient := baseCandidate(now.Add(-4000 * 24 * time.Hour))
	assert.Equal(t, Score(old, nil, now), Score(ancient, nil, now))
}

func TestScoreUnparseableTimestamp(t *testing.T) {
	now := time.Now().UTC()
	c := baseCandidate(time.Time{}) // zero value is the scan result of a bad column
	s := Score(c, nil, now)
	fresh := Score(baseCandidate(now), nil, now)
	assert.InDelta(t, fresh-30, s, 0.001)
}

func TestScoreTagExactBeatsSubstring(t *testing.T) {
	now := time.Now().UTC()
	c := baseCandidate(now)

	exact := Score(c, []string{"auth"}, now)
	substr := Score(c, []string{"secur"}, now)
	none := Score(c, []string{"database"}, now)

	assert.InDelta(t, 18, exact-none, 0.001)
	assert.InDelta(t, 8, substr-none, 0.001)
}

func TestScoreCertaintyTiers(t *testing.T) {
	now := time.Now().UTC()
	scores := map[string]float64{}
	for _, c := range []string{model.CertaintyVerified, model.CertaintyInferred, model.CertaintySpeculative} {
		cand := baseCandidate(now)
		cand.Record.Certainty = c
		scores[c] = Score(cand, nil, now)
	}
	assert.InDelta(t, 10, scores[model.CertaintyVerified]-scores[model.CertaintyInferred], 0.001)
	assert.InDelta(t, 8, scores[model.CertaintyInferred]-scores[model.CertaintySpeculative], 0.001)
}

func TestScoreLegacyCertaintyAlias(t *testing.T) {
	now := time.Now().UTC()
	legacy := baseCandidate(now)
	legacy.Record.Certainty = "hard"
	canon := baseCandidate(now)
	canon.Record.Certainty = model.CertaintyVerified
	assert.Equal(t, Score(canon, nil, now), Score(legacy, nil, now))
}

func TestScoreIndexRankClamped(t *testing.T) {
	now := time.Now().UTC()

	c := baseCandidate(now)
	c.Rank = -1.5 // typical bm25 rank
	mid := Score(c, nil, now)

	c.Rank = -100 // pathological rank clamps at the cap
	capped := Score(c, nil, now)

	c.Rank = math.NaN()
	absent := Score(c, nil, now)

	assert.InDelta(t, 15, mid-absent, 0.001)
	assert.InDelta(t, 30, capped-absent, 0.001)

	c.Rank = 2 // positive rank never goes below zero contribution
	assert.Equal(t, absent, Score(c, nil, now))
}

func TestRankSortsDescending(t *testing.T) {
	now := time.Now().UTC()
	low := baseCandidate(now.Add(-100 * 24 * time.Hour))
	low.Record.ID = 1
	high := baseCandidate(now)
	high.Record.ID = 2
	high.Record.Certainty = model.CertaintyVerified

	ranked := Rank([]Candidate{low, high}, nil, now)
	assert.Equal(t, int64(2), ranked[0].Record.ID)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
}

func TestScoreRoundedToThreeDecimals(t *testing.T) {
	now := time.Now().UTC()
	c := baseCandidate(now.Add(-37*24*time.Hour - 13*time.Minute))
	s := Score(c, nil, now)
	assert.Equal(t, math.Round(s*1000)/1000, s)
}
