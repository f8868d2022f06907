package store

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-sh/mnemo/internal/model"
)

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	mustInsert(t, src, InsertParams{Content: "first exported fact", Tags: "a"})
	mustInsert(t, src, InsertParams{Content: "second exported fact", Tags: "b", SourceAgent: "scribe"})

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"), "one JSON object per line")

	dst := newTestStore(t)
	report, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Zero(t, report.Failed)
	assert.True(t, strings.HasPrefix(report.BatchID, "import-"))

	recs, err := dst.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestExportStatusFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustInsert(t, s, InsertParams{Content: "stays active"})
	dep := mustInsert(t, s, InsertParams{Content: "gets deprecated"})
	_, err := s.SetStatus(ctx, dep, model.StatusDeprecated, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := s.Export(ctx, &buf, model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "stays active")
	assert.NotContains(t, buf.String(), "gets deprecated")

	buf.Reset()
	n, err = s.Export(ctx, &buf, "all")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportSkipsExactDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	existing := mustInsert(t, s, InsertParams{Content: "already here", Tags: "x"})

	var buf bytes.Buffer
	_, err := s.Export(ctx, &buf, "")
	require.NoError(t, err)

	report, err := s.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Equal(t, []int64{existing}, report.Skipped)
}

func TestImportStampsBatchAgent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := strings.NewReader(
		`{"content":"unattributed import line","tags":"","context":""}` + "\n" +
			`{"content":"attributed import line","source_agent":"original-agent"}` + "\n")
	report, err := s.Import(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	recs, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	agents := map[string]string{}
	for _, r := range recs {
		agents[r.Content] = r.SourceAgent
	}
	assert.Equal(t, report.BatchID, agents["unattributed import line"])
	assert.Equal(t, "original-agent", agents["attributed import line"])
}

func TestImportCountsInvalidRecords(t *testing.T) {
	s := newTestStore(t)
	in := strings.NewReader(
		`{"content":"   "}` + "\n" +
			`{"content":"valid line survives neighbors"}` + "\n")
	report, err := s.Import(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import(context.Background(), strings.NewReader("not json at all\n"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustInsert(t, s, InsertParams{Content: "a gotcha", MemoryType: model.TypeGotcha})
	mustInsert(t, s, InsertParams{Content: "a decision", MemoryType: model.TypeDecision, Certainty: model.CertaintyVerified})
	dep := mustInsert(t, s, InsertParams{Content: "a deprecated note"})
	_, err := s.SetStatus(ctx, dep, model.StatusDeprecated, nil)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, schemaVersion, stats.SchemaVersion)
	assert.Equal(t, 2, stats.ByStatus[model.StatusActive])
	assert.Equal(t, 1, stats.ByStatus[model.StatusDeprecated])
	assert.Equal(t, 1, stats.ByType[model.TypeGotcha])
	assert.Equal(t, 1, stats.ByCertainty[model.CertaintyVerified])
	assert.Greater(t, stats.DBSizeBytes, int64(0))
	assert.Equal(t, s.cfg.DBPath, stats.DBPath)
}
