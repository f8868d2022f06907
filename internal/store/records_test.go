package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-sh/mnemo/internal/model"
)

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Insert(ctx, InsertParams{
		Content:     "Auth service signs tokens with RS256",
		Tags:        "auth, jwt",
		Context:     "internal/auth",
		MemoryType:  model.TypeDecision,
		Certainty:   model.CertaintyVerified,
		SourceAgent: "builder",
		Refs:        []string{"internal/auth/signer.go"},
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Auth service signs tokens with RS256", got.Content)
	assert.Equal(t, []string{"auth", "jwt"}, got.TagList())
	assert.Equal(t, model.TypeDecision, got.MemoryType)
	assert.Equal(t, model.CertaintyVerified, got.Certainty)
	assert.Equal(t, model.StatusActive, got.Status)
	assert.Equal(t, "builder", got.SourceAgent)
	assert.Equal(t, []string{"internal/auth/signer.go"}, got.Refs)
	assert.Equal(t, 0, got.UpdateCount)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.SupersededBy)
}

func TestInsertDefaults(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Insert(context.Background(), InsertParams{Content: "plain fact"})
	require.NoError(t, err)
	assert.Equal(t, model.TypeReference, rec.MemoryType)
	assert.Equal(t, model.CertaintyInferred, rec.Certainty)
	assert.Equal(t, []string{}, rec.Refs)
}

func TestInsertValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cases := []struct {
		name string
		p    InsertParams
	}{
		{"empty content", InsertParams{Content: "   "}},
		{"bad type", InsertParams{Content: "x y", MemoryType: "opinion"}},
		{"bad certainty", InsertParams{Content: "x y", Certainty: "definitely"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Insert(ctx, tc.p)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation))
		})
	}
}

func TestInsertLegacyCertaintyAlias(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Insert(context.Background(), InsertParams{
		Content:   "legacy alias normalizes on write",
		Certainty: "hard",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CertaintyVerified, rec.Certainty)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUpdateFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := mustInsert(t, s, InsertParams{Content: "old wording of the fact"})

	newContent := "new wording of the fact"
	rec, err := s.UpdateFields(ctx, id, UpdateParams{
		Content:   &newContent,
		UpdatedBy: "reviewer",
	})
	require.NoError(t, err)
	assert.Equal(t, newContent, rec.Content)
	assert.Equal(t, "reviewer", rec.LastUpdatedBy)
	assert.Equal(t, 1, rec.UpdateCount)
	assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))

	// Second touch bumps the counter again.
	tags := "rewrite"
	rec, err = s.UpdateFields(ctx, id, UpdateParams{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.UpdateCount)
}

func TestUpdateFieldsNotFound(t *testing.T) {
	s := newTestStore(t)
	c := "whatever"
	_, err := s.UpdateFields(context.Background(), 4242, UpdateParams{Content: &c})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSetStatusSupersession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	oldID := mustInsert(t, s, InsertParams{Content: "cache TTL is five minutes"})
	newID := mustInsert(t, s, InsertParams{Content: "cache TTL is one minute"})

	rec, err := s.SetStatus(ctx, oldID, model.StatusSupersededBy, &newID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSupersededBy, rec.Status)
	require.NotNil(t, rec.SupersededBy)
	assert.Equal(t, newID, *rec.SupersededBy)
}

func TestSetStatusSelfSupersessionRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := mustInsert(t, s, InsertParams{Content: "some fact"})

	_, err := s.SetStatus(ctx, id, model.StatusSupersededBy, &id)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestSetStatusDeprecateClearsPointer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := mustInsert(t, s, InsertParams{Content: "fact a"})
	b := mustInsert(t, s, InsertParams{Content: "fact b"})

	_, err := s.SetStatus(ctx, a, model.StatusSupersededBy, &b)
	require.NoError(t, err)
	rec, err := s.SetStatus(ctx, a, model.StatusDeprecated, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeprecated, rec.Status)
	assert.Nil(t, rec.SupersededBy, "pointer only meaningful while superseded")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := mustInsert(t, s, InsertParams{Content: "short lived"})

	require.NoError(t, s.Delete(ctx, id))
	_, err := s.Get(ctx, id)
	assert.True(t, IsKind(err, KindNotFound))
	assert.True(t, IsKind(s.Delete(ctx, id), KindNotFound))
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustInsert(t, s, InsertParams{Content: "active gotcha", MemoryType: model.TypeGotcha, Tags: "build, ci"})
	mustInsert(t, s, InsertParams{Content: "active decision", MemoryType: model.TypeDecision, Certainty: model.CertaintyVerified})
	dep := mustInsert(t, s, InsertParams{Content: "deprecated one"})
	_, err := s.SetStatus(ctx, dep, model.StatusDeprecated, nil)
	require.NoError(t, err)

	recs, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, recs, 2, "default hides non-active")

	recs, err = s.List(ctx, ListParams{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = s.List(ctx, ListParams{MemoryType: model.TypeGotcha})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "active gotcha", recs[0].Content)

	// Tag filter matches whole comma-separated entries only.
	recs, err = s.List(ctx, ListParams{Tag: "ci"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	recs, err = s.List(ctx, ListParams{Tag: "c"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	// Legacy alias in a filter matches canonically stored rows.
	recs, err = s.List(ctx, ListParams{Certainty: "hard"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "active decision", recs[0].Content)
}

func TestListLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		mustInsert(t, s, InsertParams{Content: "row number " + string(rune('a'+i))})
	}
	recs, err := s.List(ctx, ListParams{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestScanRecordLegacyRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := mustInsert(t, s, InsertParams{Content: "legacy shaped row"})

	// Older writers stored aliases and comma-joined refs.
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET certainty='soft', refs='a.go,b.go' WHERE id=?`, id)
	require.NoError(t, err)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.CertaintyInferred, rec.Certainty)
	assert.Equal(t, []string{"a.go", "b.go"}, rec.Refs)
	assert.False(t, rec.RefsMalformed)

	_, err = s.db.ExecContext(ctx, `UPDATE memories SET refs='{"oops":1}' WHERE id=?`, id)
	require.NoError(t, err)
	rec, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.Refs)
	assert.True(t, rec.RefsMalformed)
}
