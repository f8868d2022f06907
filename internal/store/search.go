package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mnemo-sh/mnemo/internal/model"
	"github.com/mnemo-sh/mnemo/internal/neighborhood"
	"github.com/mnemo-sh/mnemo/internal/score"
	"github.com/mnemo-sh/mnemo/internal/token"
)

// QueryParams drives a free-text search.
type QueryParams struct {
	Text       string
	MemoryType string
	Certainty  string
	Status     string
	Limit      int
}

// QueryReport is the full answer to a query. Results may be empty, but
// the report always says why: Reason distinguishes a zero-token query
// from a query that matched nothing, and Hints tell the agent how to
// broaden the search. Never a bare empty list.
type QueryReport struct {
	Results []score.Scored    `json:"results"`
	Tokens  []string          `json:"tokens"`
	Filters map[string]string `json:"filters,omitempty"`
	Reason  string            `json:"reason,omitempty"` // "no_tokens" | "no_matches"
	Hints   []string          `json:"hints,omitempty"`
}

// Query tokenizes the text, runs an FTS MATCH, and scores and ranks
// the hits.
func (s *Store) Query(ctx context.Context, p QueryParams) (*QueryReport, error) {
	report := &QueryReport{
		Tokens:  token.ExtractTerms(p.Text),
		Filters: filterMap(p),
	}

	match, ok := token.BuildMatchQuery(report.Tokens)
	if !ok {
		report.Reason = "no_tokens"
		report.Hints = []string{
			"the query reduced to zero searchable tokens",
			"use words of two or more letters; stopwords and punctuation are dropped",
		}
		return report, nil
	}

	cands, err := s.matchCandidates(ctx, match, p)
	if err != nil {
		return nil, err
	}

	report.Results = score.Rank(cands, report.Tokens, time.Now().UTC())
	if len(report.Results) == 0 {
		report.Reason = "no_matches"
		report.Hints = []string{
			"no records matched these tokens with the active filters",
			"try fewer or more general terms, or --status all to include deprecated records",
		}
	}
	return report, nil
}

// matchCandidates runs the FTS query and returns raw candidates with
// their native rank, ordered by rank then recency so score ties keep a
// deterministic order.
func (s *Store) matchCandidates(ctx context.Context, match string, p QueryParams) ([]score.Candidate, error) {
	where, args, err := buildFilters(ListParams{
		MemoryType: p.MemoryType,
		Certainty:  p.Certainty,
		Status:     p.Status,
	})
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT m.id, m.content, m.tags, m.context, m.memory_type, m.certainty,
		       m.status, m.superseded_by, m.source_agent, m.last_updated_by,
		       m.update_count, m.refs, m.expires_after_days, m.created_at, m.updated_at,
		       rank
		FROM memories_fts
		JOIN memories m ON memories_fts.rowid = m.id
		WHERE memories_fts MATCH ?`
	qargs := []interface{}{match}
	for _, w := range where {
		query += " AND m." + w
	}
	qargs = append(qargs, args...)
	query += " ORDER BY rank, m.updated_at DESC LIMIT ?"
	qargs = append(qargs, limit)

	var rows *sql.Rows
	err = s.retry(ctx, func() error {
		var qerr error
		rows, qerr = s.db.QueryContext(ctx, query, qargs...)
		return qerr
	})
	if err != nil {
		if isFTSParse(err) {
			return nil, indexParseErr(match, err)
		}
		return nil, fmt.Errorf("index query: %w", err)
	}
	defer rows.Close()

	var cands []score.Candidate
	for rows.Next() {
		r, rank, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		cands = append(cands, score.Candidate{Record: r, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cands, nil
}

// scanCandidate scans a record row with its trailing FTS rank column.
func scanCandidate(rows *sql.Rows) (model.Record, float64, error) {
	var r model.Record
	var supersededBy sql.NullInt64
	var expires sql.NullInt64
	var rank sql.NullFloat64
	var refsRaw, certainty, createdAt, updatedAt string

	err := rows.Scan(
		&r.ID, &r.Content, &r.Tags, &r.Context, &r.MemoryType, &certainty,
		&r.Status, &supersededBy, &r.SourceAgent, &r.LastUpdatedBy,
		&r.UpdateCount, &refsRaw, &expires, &createdAt, &updatedAt, &rank,
	)
	if err != nil {
		return r, 0, err
	}

	if canon, err := model.NormalizeCertainty(certainty); err == nil {
		r.Certainty = canon
	} else {
		r.Certainty = certainty
	}
	if supersededBy.Valid {
		r.SupersededBy = &supersededBy.Int64
	}
	if expires.Valid {
		days := int(expires.Int64)
		r.ExpiresAfterDays = &days
	}
	r.Refs, r.RefsMalformed = model.ParseRefs(refsRaw)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if !rank.Valid {
		return r, math.NaN(), nil
	}
	return r, rank.Float64, nil
}

// ConflictScanResult reports what an add/import is about to collide
// with: an exact duplicate's id, or scored near matches.
type ConflictScanResult struct {
	DuplicateOf int64          `json:"duplicate_of,omitempty"`
	Matches     []score.Scored `json:"matches,omitempty"`
}

// ConflictScan checks new content against the corpus before an add or
// import: an exact (content, tags, context) match among active records
// is a duplicate; otherwise the top active index matches are scored
// with the new content's own tokens so the caller can warn about
// likely conflicts.
func (s *Store) ConflictScan(ctx context.Context, content, tags, context_ string, limit int) (*ConflictScanResult, error) {
	res := &ConflictScanResult{}

	dup, err := s.FindExactActive(ctx, content, tags, context_)
	if err != nil {
		return nil, err
	}
	if dup != 0 {
		res.DuplicateOf = dup
		return res, nil
	}

	if limit <= 0 {
		limit = 5
	}
	tokens := token.ExtractTerms(strings.Join([]string{content, tags, context_}, " "))
	match, ok := token.BuildMatchQuery(tokens)
	if !ok {
		return res, nil
	}
	cands, err := s.matchCandidates(ctx, match, QueryParams{Limit: limit})
	if err != nil {
		if IsKind(err, KindIndexParse) {
			return res, nil
		}
		return nil, err
	}
	res.Matches = score.Rank(cands, tokens, time.Now().UTC())
	return res, nil
}

// Suggest finds records related to a set of file paths. Index matches
// come from the neighborhood terms; hint matches come from LIKE
// probes over tags and context and carry the hint bonus, so a record
// found both ways outranks one found by a single signal.
func (s *Store) Suggest(ctx context.Context, paths []string, limit int) (*QueryReport, error) {
	n := neighborhood.Derive(paths)
	for prefix, tags := range s.cfg.PathTags {
		for _, p := range paths {
			if strings.HasPrefix(strings.TrimPrefix(p, "./"), prefix) {
				n.TagHints = append(n.TagHints, tags...)
				break
			}
		}
	}
	if limit <= 0 {
		limit = 10
	}

	report := &QueryReport{Tokens: n.Terms}

	var indexHits []score.Scored
	if match, ok := token.BuildMatchQuery(n.Terms); ok {
		cands, err := s.matchCandidates(ctx, match, QueryParams{Limit: limit})
		if err != nil && !IsKind(err, KindIndexParse) {
			return nil, err
		}
		if err == nil {
			indexHits = score.Rank(cands, n.Terms, time.Now().UTC())
		}
	}

	hintRecords, err := s.hintMatches(ctx, n, limit)
	if err != nil {
		return nil, err
	}
	hintCands := make([]score.Candidate, len(hintRecords))
	for i, r := range hintRecords {
		hintCands[i] = score.Candidate{Record: r, Rank: math.NaN()}
	}
	hintHits := score.Rank(hintCands, n.Terms, time.Now().UTC())

	report.Results = neighborhood.Merge(indexHits, hintHits)
	sortScoredDesc(report.Results)
	if len(report.Results) > limit {
		report.Results = report.Results[:limit]
	}
	if len(report.Results) == 0 {
		report.Reason = "no_matches"
		report.Hints = []string{
			"no records are tagged or indexed near these paths",
			"add records with --tags matching the directory names to build up coverage",
		}
	}
	return report, nil
}

// hintMatches probes tags and context for the derived hints directly,
// without the index.
func (s *Store) hintMatches(ctx context.Context, n neighborhood.Neighborhood, limit int) ([]model.Record, error) {
	var where []string
	var args []interface{}
	for _, h := range n.TagHints {
		where = append(where, "(',' || REPLACE(LOWER(tags), ' ', '') || ',') LIKE ?")
		args = append(args, "%,"+strings.ToLower(h)+",%")
	}
	for _, h := range n.PathHints {
		where = append(where, "LOWER(context) LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSuffix(h, "/"))+"%")
	}
	if len(where) == 0 {
		return nil, nil
	}

	query := selectCols + ` FROM memories WHERE status = 'active' AND (` +
		strings.Join(where, " OR ") + `) ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hint probe: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func sortScoredDesc(hits []score.Scored) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
}

func filterMap(p QueryParams) map[string]string {
	m := map[string]string{}
	if p.MemoryType != "" {
		m["type"] = p.MemoryType
	}
	if p.Certainty != "" {
		m["certainty"] = p.Certainty
	}
	status := p.Status
	if status == "" {
		status = model.StatusActive
	}
	m["status"] = status
	return m
}
