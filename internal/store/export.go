package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mnemo-sh/mnemo/internal/model"
)

// Export writes records as JSON lines, optionally filtered by status
// ("all" or empty exports everything).
func (s *Store) Export(ctx context.Context, w io.Writer, status string) (int, error) {
	records, err := s.AllRecords(ctx)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	count := 0
	for _, r := range records {
		if status != "" && status != "all" && r.Status != status {
			continue
		}
		if err := enc.Encode(r); err != nil {
			return count, fmt.Errorf("encoding record %d: %w", r.ID, err)
		}
		count++
	}
	return count, nil
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	BatchID  string  `json:"batch_id"`
	Imported int     `json:"imported"`
	Skipped  []int64 `json:"skipped,omitempty"` // existing ids the duplicates pointed at
	Failed   int     `json:"failed"`
}

// Import reads JSON-lines records and inserts them. Exact duplicates
// of active records are skipped, never re-created. Records without a
// source agent are stamped with a per-batch ULID so imports stay
// traceable.
func (s *Store) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	report := &ImportReport{
		BatchID: "import-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String(),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return report, validationErr("line %d: not a valid record: %v", line, err)
		}

		dup, err := s.FindExactActive(ctx, rec.Content, rec.Tags, rec.Context)
		if err != nil {
			return report, err
		}
		if dup != 0 {
			report.Skipped = append(report.Skipped, dup)
			continue
		}

		agent := rec.SourceAgent
		if agent == "" {
			agent = report.BatchID
		}
		_, err = s.Insert(ctx, InsertParams{
			Content:          rec.Content,
			Tags:             rec.Tags,
			Context:          rec.Context,
			MemoryType:       rec.MemoryType,
			Certainty:        rec.Certainty,
			SourceAgent:      agent,
			Refs:             rec.Refs,
			ExpiresAfterDays: rec.ExpiresAfterDays,
		})
		if err != nil {
			if IsKind(err, KindValidation) {
				report.Failed++
				continue
			}
			return report, err
		}
		report.Imported++
	}
	if err := sc.Err(); err != nil {
		return report, fmt.Errorf("reading import stream: %w", err)
	}
	return report, nil
}
