package neighborhood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-sh/mnemo/internal/model"
	"github.com/mnemo-sh/mnemo/internal/score"
)

func TestDerivePathHints(t *testing.T) {
	n := Derive([]string{"./internal/auth/jwt.go"})
	assert.Contains(t, n.PathHints, "internal/auth/")
	assert.Contains(t, n.PathHints, "internal/auth/*.go")
}

func TestDeriveTagHints(t *testing.T) {
	n := Derive([]string{"src/billing/invoice.py", "lib/billing/tax.py"})
	assert.Equal(t, []string{"billing"}, n.TagHints)
}

func TestDeriveNormalizesSeparators(t *testing.T) {
	n := Derive([]string{`internal\payments\ledger.go`})
	assert.Contains(t, n.PathHints, "internal/payments/")
	assert.Contains(t, n.TagHints, "payments")
}

func TestDeriveDedupesCaseInsensitively(t *testing.T) {
	n := Derive([]string{"Billing/a.go", "billing/b.go"})
	count := 0
	for _, h := range n.TagHints {
		if h == "Billing" || h == "billing" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeriveRootFilesYieldNothing(t *testing.T) {
	n := Derive([]string{"README.md", "./main.go"})
	assert.Empty(t, n.PathHints)
	assert.Empty(t, n.TagHints)
}

func TestDeriveTerms(t *testing.T) {
	n := Derive([]string{"internal/payments/ledger.go"})
	assert.Contains(t, n.Terms, "payments")
	assert.Contains(t, n.Terms, "internal")
}

func TestMergeBothSignalsOutrankOne(t *testing.T) {
	indexOnly := score.Scored{Record: model.Record{ID: 1}, Score: 40}
	both := score.Scored{Record: model.Record{ID: 2}, Score: 40}
	hintForBoth := score.Scored{Record: model.Record{ID: 2}, Score: 22}
	hintOnly := score.Scored{Record: model.Record{ID: 3}, Score: 22}

	merged := Merge([]score.Scored{indexOnly, both}, []score.Scored{hintForBoth, hintOnly})
	require.Len(t, merged, 3)

	byID := map[int64]score.Scored{}
	for _, m := range merged {
		byID[m.Record.ID] = m
	}

	assert.Equal(t, 40.0, byID[1].Score)
	assert.Equal(t, 52.0, byID[2].Score, "higher raw score plus hint bonus")
	assert.Equal(t, 34.0, byID[3].Score)
	assert.Greater(t, byID[2].Score, byID[1].Score)
	assert.Greater(t, byID[2].Score, byID[3].Score)

	assert.Equal(t, []string{"index"}, byID[1].FoundVia)
	assert.ElementsMatch(t, []string{"index", "path-hint"}, byID[2].FoundVia)
	assert.Equal(t, []string{"path-hint"}, byID[3].FoundVia)
}
