package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	SchemaVersion int            `json:"schema_version"`
	TotalRecords  int            `json:"total_records"`
	ByStatus      map[string]int `json:"by_status,omitempty"`
	ByType        map[string]int `json:"by_type,omitempty"`
	ByCertainty   map[string]int `json:"by_certainty,omitempty"`
}

// Stats returns database statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		DBPath:      s.cfg.DBPath,
		ByStatus:    map[string]int{},
		ByType:      map[string]int{},
		ByCertainty: map[string]int{},
	}

	if info, err := os.Stat(s.cfg.DBPath); err == nil {
		st.DBSizeBytes = info.Size()
	}
	if v, err := s.userVersion(ctx); err == nil {
		st.SchemaVersion = v
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalRecords); err != nil {
		return nil, err
	}

	for col, dest := range map[string]map[string]int{
		"status":      st.ByStatus,
		"memory_type": st.ByType,
		"certainty":   st.ByCertainty,
	} {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+col+`, COUNT(*) FROM memories GROUP BY `+col)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var k string
			var n int
			if err := rows.Scan(&k, &n); err != nil {
				rows.Close()
				return nil, err
			}
			dest[k] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return st, nil
}
