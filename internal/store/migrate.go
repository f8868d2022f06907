package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is the version this build expects, persisted in the
// database's own PRAGMA user_version. Bump whenever migrate gains a
// new step.
const schemaVersion = 2

// Migrate brings the store up to the current schema version. Runs in a
// single exclusive transaction: any failure rolls everything back,
// leaving the store exactly as it was. Idempotent; every DDL statement
// is existence-checked.
func (s *Store) Migrate(ctx context.Context) error {
	return s.retry(ctx, func() error {
		have, err := s.userVersion(ctx)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		structural, err := s.ftsTableMissing(ctx)
		if err != nil {
			return fmt.Errorf("checking fts table: %w", err)
		}
		if have >= schemaVersion && !structural {
			return nil
		}

		s.log.Debug().Int("from", have).Int("to", schemaVersion).Msg("migrating schema")

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration: %w", err)
		}
		defer tx.Rollback()

		if err := migrateBase(ctx, tx); err != nil {
			return err
		}
		if err := migrateColumns(ctx, tx); err != nil {
			return err
		}
		rebuilt, err := migrateFTS(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("persisting schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration: %w", err)
		}
		if rebuilt {
			s.log.Debug().Msg("fts index rebuilt from scratch")
		}
		return nil
	})
}

// checkSchemaCurrent is the read-session guard: stale schema fails
// fast with remediation instead of silently reading stale structure.
func (s *Store) checkSchemaCurrent(ctx context.Context) error {
	have, err := s.userVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	missing, err := s.ftsTableMissing(ctx)
	if err != nil {
		return fmt.Errorf("checking fts table: %w", err)
	}
	if have < schemaVersion || missing {
		return schemaStaleErr(have, schemaVersion)
	}
	return nil
}

func (s *Store) userVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (s *Store) ftsTableMissing(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = 'memories_fts'`,
	).Scan(&n)
	return n == 0, err
}

func migrateBase(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS memories (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		content            TEXT NOT NULL,
		tags               TEXT NOT NULL DEFAULT '',
		context            TEXT NOT NULL DEFAULT '',
		memory_type        TEXT NOT NULL DEFAULT 'reference',
		certainty          TEXT NOT NULL DEFAULT 'inferred',
		status             TEXT NOT NULL DEFAULT 'active',
		superseded_by      INTEGER,
		source_agent       TEXT NOT NULL DEFAULT '',
		last_updated_by    TEXT NOT NULL DEFAULT '',
		update_count       INTEGER NOT NULL DEFAULT 0,
		refs               TEXT NOT NULL DEFAULT '[]',
		expires_after_days INTEGER,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_updated ON memories(updated_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating base table: %w", err)
	}
	return nil
}

// addedColumns lists columns grafted onto older databases, with safe
// defaults. Existence-checked so re-running is a no-op.
var addedColumns = []struct{ name, ddl string }{
	{"refs", `ALTER TABLE memories ADD COLUMN refs TEXT NOT NULL DEFAULT '[]'`},
	{"expires_after_days", `ALTER TABLE memories ADD COLUMN expires_after_days INTEGER`},
	{"last_updated_by", `ALTER TABLE memories ADD COLUMN last_updated_by TEXT NOT NULL DEFAULT ''`},
}

func migrateColumns(ctx context.Context, tx *sql.Tx) error {
	for _, col := range addedColumns {
		var n int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM pragma_table_info('memories') WHERE name = ?", col.name,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("checking for %s column: %w", col.name, err)
		}
		if n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("adding %s column: %w", col.name, err)
		}
	}
	return nil
}

// migrateFTS (re)creates the external-content FTS5 shadow table and
// its propagation triggers. Returns true when the table was newly
// created, in which case the index is rebuilt from the base table.
func migrateFTS(ctx context.Context, tx *sql.Tx) (bool, error) {
	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE name = 'memories_fts'`,
	).Scan(&existing); err != nil {
		return false, fmt.Errorf("checking fts table: %w", err)
	}

	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			content, tags, context,
			content=memories,
			content_rowid=id
		)`,
		`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
			INSERT INTO memories_fts(rowid, content, tags, context)
			VALUES (new.id, new.content, new.tags, new.context);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content, tags, context)
			VALUES ('delete', old.id, old.content, old.tags, old.context);
		END`,
		// Update = delete old entry + insert new; the shadow is never
		// independently authoritative.
		`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content, tags, context)
			VALUES ('delete', old.id, old.content, old.tags, old.context);
			INSERT INTO memories_fts(rowid, content, tags, context)
			VALUES (new.id, new.content, new.tags, new.context);
		END`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("creating fts schema: %w", err)
		}
	}

	if existing == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memories_fts(rowid, content, tags, context)
			SELECT id, content, tags, context FROM memories
		`); err != nil {
			return false, fmt.Errorf("rebuilding fts index: %w", err)
		}
		return true, nil
	}
	return false, nil
}
