package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mnemo-sh/mnemo/internal/model"
)

// InsertParams holds the caller-supplied fields for a new record.
type InsertParams struct {
	Content          string
	Tags             string
	Context          string
	MemoryType       string
	Certainty        string
	SourceAgent      string
	Refs             []string
	ExpiresAfterDays *int
}

// Insert validates and stores a new record. The record starts active
// with update_count 0; the FTS shadow entry is created by trigger.
func (s *Store) Insert(ctx context.Context, p InsertParams) (*model.Record, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, validationErr("content must not be empty")
	}
	memType := p.MemoryType
	if memType == "" {
		memType = model.TypeReference
	}
	memType, err := model.NormalizeType(memType)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: err.Error()}
	}
	certainty := p.Certainty
	if certainty == "" {
		certainty = model.CertaintyInferred
	}
	certainty, err = model.NormalizeCertainty(certainty)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: err.Error()}
	}
	if p.ExpiresAfterDays != nil && *p.ExpiresAfterDays < 0 {
		return nil, validationErr("expires_after_days must be non-negative")
	}

	now := nowUTC()
	var id int64
	err = s.retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO memories
				(content, tags, context, memory_type, certainty, status,
				 source_agent, last_updated_by, update_count, refs,
				 expires_after_days, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'active', ?, ?, 0, ?, ?, ?, ?)`,
			p.Content, p.Tags, p.Context, memType, certainty,
			p.SourceAgent, p.SourceAgent, model.EncodeRefs(p.Refs),
			p.ExpiresAfterDays, now, now,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches one record by id, normalized at the read boundary.
func (s *Store) Get(ctx context.Context, id int64) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM memories WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, notFoundErr(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &r, nil
}

// ListParams filters List output. Empty fields mean no filter; Status
// "all" bypasses the default active-only visibility.
type ListParams struct {
	MemoryType string
	Certainty  string
	Status     string
	Tag        string
	Limit      int
}

// List returns records matching the filters, most recently updated
// first.
func (s *Store) List(ctx context.Context, p ListParams) ([]model.Record, error) {
	where, args, err := buildFilters(p)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	query := selectCols + ` FROM memories`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// UpdateParams carries a partial update; nil fields are untouched.
type UpdateParams struct {
	Content   *string
	Tags      *string
	Context   *string
	Certainty *string
	Refs      []string
	UpdatedBy string
}

// UpdateFields applies a partial update: update_count increments,
// updated_at refreshes, and the FTS shadow entry is replaced by
// trigger.
func (s *Store) UpdateFields(ctx context.Context, id int64, p UpdateParams) (*model.Record, error) {
	sets := []string{"update_count = update_count + 1", "updated_at = ?"}
	args := []interface{}{nowUTC()}

	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return nil, validationErr("content must not be empty")
		}
		sets = append(sets, "content = ?")
		args = append(args, *p.Content)
	}
	if p.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, *p.Tags)
	}
	if p.Context != nil {
		sets = append(sets, "context = ?")
		args = append(args, *p.Context)
	}
	if p.Certainty != nil {
		c, err := model.NormalizeCertainty(*p.Certainty)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: err.Error()}
		}
		sets = append(sets, "certainty = ?")
		args = append(args, c)
	}
	if p.Refs != nil {
		sets = append(sets, "refs = ?")
		args = append(args, model.EncodeRefs(p.Refs))
	}
	if p.UpdatedBy != "" {
		sets = append(sets, "last_updated_by = ?")
		args = append(args, p.UpdatedBy)
	}
	args = append(args, id)

	err := s.retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFoundErr(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetStatus deprecates or supersedes a record. A superseded_by status
// requires a different record's id; self-reference is rejected.
func (s *Store) SetStatus(ctx context.Context, id int64, status string, supersededBy *int64) (*model.Record, error) {
	status, err := model.NormalizeStatus(status)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: err.Error()}
	}
	if status == model.StatusSupersededBy {
		if supersededBy == nil {
			return nil, validationErr("status superseded_by requires a superseding record id")
		}
		if *supersededBy == id {
			return nil, validationErr("record %d cannot supersede itself", id)
		}
	} else {
		supersededBy = nil
	}

	err = s.retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE memories
			SET status = ?, superseded_by = ?,
			    update_count = update_count + 1, updated_at = ?
			WHERE id = ?`,
			status, supersededBy, nowUTC(), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFoundErr(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a record; the FTS shadow entry goes with it by
// trigger. Not-found is a structured result, never a batch-aborting
// failure.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.retry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFoundErr(id)
		}
		return nil
	})
}

// ActiveRecords returns all active records ordered by id, the working
// set for the dedup sweep.
func (s *Store) ActiveRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectCols+` FROM memories WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading active records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// AllRecords returns every record ordered by id, for hygiene checks
// and export.
func (s *Store) AllRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+` FROM memories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// FindExactActive returns the id of an active record with the same
// (content, tags, context) triple, or 0.
func (s *Store) FindExactActive(ctx context.Context, content, tags, context string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM memories
		WHERE status = 'active' AND content = ? AND tags = ? AND context = ?
		ORDER BY id LIMIT 1`,
		content, tags, context,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checking exact duplicate: %w", err)
	}
	return id, nil
}

const selectCols = `SELECT id, content, tags, context, memory_type, certainty,
	status, superseded_by, source_agent, last_updated_by, update_count,
	refs, expires_after_days, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord is the single normalization step between raw rows and the
// strict Record type: enum aliases resolve, refs always materialize as
// a list, timestamps parse leniently (a bad timestamp zeroes the field
// rather than failing the read).
func scanRecord(row scanner) (model.Record, error) {
	var r model.Record
	var supersededBy sql.NullInt64
	var expires sql.NullInt64
	var refsRaw, certainty, createdAt, updatedAt string

	err := row.Scan(
		&r.ID, &r.Content, &r.Tags, &r.Context, &r.MemoryType, &certainty,
		&r.Status, &supersededBy, &r.SourceAgent, &r.LastUpdatedBy,
		&r.UpdateCount, &refsRaw, &expires, &createdAt, &updatedAt,
	)
	if err != nil {
		return r, err
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
	return r, nil
}

func collectRecords(rows *sql.Rows) ([]model.Record, error) {
	var out []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildFilters translates ListParams into WHERE clauses, accepting
// legacy certainty aliases on filter.
func buildFilters(p ListParams) (where []string, args []interface{}, err error) {
	status := p.Status
	if status == "" {
		status = model.StatusActive
	}
	if status != "all" {
		status, err = model.NormalizeStatus(status)
		if err != nil {
			return nil, nil, &Error{Kind: KindValidation, Message: err.Error()}
		}
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if p.MemoryType != "" {
		t, err := model.NormalizeType(p.MemoryType)
		if err != nil {
			return nil, nil, &Error{Kind: KindValidation, Message: err.Error()}
		}
		where = append(where, "memory_type = ?")
		args = append(args, t)
	}
	if p.Certainty != "" {
		c, err := model.NormalizeCertainty(p.Certainty)
		if err != nil {
			return nil, nil, &Error{Kind: KindValidation, Message: err.Error()}
		}
		// Old rows may still hold the legacy alias on disk.
		where = append(where, "certainty IN (?, ?)")
		args = append(args, c, legacyAlias(c))
	}
	if p.Tag != "" {
		where = append(where, "(',' || REPLACE(LOWER(tags), ' ', '') || ',') LIKE ?")
		args = append(args, "%,"+strings.ToLower(strings.TrimSpace(p.Tag))+",%")
	}
	return where, args, nil
}

// legacyAlias maps a canonical certainty back to its pre-rename form
// so filters also match rows written before migration normalized them.
func legacyAlias(canon string) string {
	switch canon {
	case model.CertaintyVerified:
		return "hard"
	case model.CertaintyInferred:
		return "soft"
	case model.CertaintySpeculative:
		return "uncertain"
	}
	return canon
}
