package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegationMismatchForcesConflict(t *testing.T) {
	res := Facts(
		"the cache is not invalidated on writes",
		"the cache is invalidated on writes",
	)
	assert.True(t, res.Conflict)
	assert.True(t, res.NegationMismatch)
	assert.Greater(t, res.Similarity, 0.5, "token overlap stays high despite the conflict")
}

func TestMatchingNegationIsNotConflict(t *testing.T) {
	res := Facts(
		"the cache is never invalidated on writes",
		"the cache is not invalidated on writes",
	)
	assert.False(t, res.NegationMismatch)
	assert.False(t, res.Conflict)
}

func TestLowSimilarityIsConflict(t *testing.T) {
	res := Facts(
		"deploys run through the staging pipeline",
		"billing invoices round to whole cents",
	)
	assert.True(t, res.Conflict)
	assert.False(t, res.NegationMismatch)
	assert.Less(t, res.Similarity, 0.35)
}

func TestIdenticalTextsAgree(t *testing.T) {
	res := Facts("auth uses jwt with rs256", "auth uses jwt with rs256")
	assert.Equal(t, 1.0, res.Similarity)
	assert.False(t, res.Conflict)
	assert.Empty(t, res.AddedTerms)
	assert.Empty(t, res.RemovedTerms)
}

func TestBothEmptyAreIdentical(t *testing.T) {
	res := Facts("", "")
	assert.Equal(t, 1.0, res.Similarity)
	assert.False(t, res.Conflict)
}

func TestAddedAndRemovedTerms(t *testing.T) {
	res := Facts(
		"sessions live in redis",
		"sessions live in memcached now",
	)
	assert.Contains(t, res.AddedTerms, "memcached")
	assert.Contains(t, res.RemovedTerms, "redis")
	assert.NotContains(t, res.AddedTerms, "sessions")
}

func TestTermDiffCapped(t *testing.T) {
	res := Facts(
		"alpha",
		"beta gamma delta epsilon zeta eta theta iota kappa lambduh mu nu xi omicron pi rho",
	)
	assert.Len(t, res.AddedTerms, 12)
}

func TestContractionNegationDetected(t *testing.T) {
	res := Facts("workers can't touch the primary", "workers touch the primary")
	assert.True(t, res.NegationMismatch)
	assert.True(t, res.Conflict)
}

func TestThresholdIsTunable(t *testing.T) {
	a := "queue depth alarms page oncall"
	b := "queue depth alarms page the oncall rotation"
	strict := FactsAt(a, b, 0.99)
	lax := FactsAt(a, b, 0.10)
	assert.True(t, strict.Conflict)
	assert.False(t, lax.Conflict)
}
