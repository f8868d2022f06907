// Package store owns the on-disk schema, session modes, migration, and
// busy-retry discipline, and exposes the engine operations (insert,
// update, query, dedup sweep, neighborhood suggest) on top of a single
// SQLite + FTS5 database file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mnemo-sh/mnemo/internal/config"
)

// Mode selects the session's capability.
type Mode int

const (
	// ModeRead opens a read-only session. Never migrates; fails fast
	// when the schema is stale.
	ModeRead Mode = iota
	// ModeWrite opens a write-capable session and migrates on open if
	// the schema is behind.
	ModeWrite
)

// Store is one session against the database file. Open once per
// invocation, pass by reference, close on every exit path.
type Store struct {
	db   *sql.DB
	mode Mode
	cfg  config.Resolved
	log  zerolog.Logger
}

// Open opens or creates the database at cfg.DBPath in the given mode.
func Open(cfg config.Resolved, mode Mode, log zerolog.Logger) (*Store, error) {
	if mode == ModeWrite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := "file:" + cfg.DBPath +
		"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(250)"
	if mode == ModeRead {
		dsn += "&mode=ro"
	} else {
		// Write transactions take the lock up front so concurrent
		// migrations serialize instead of failing mid-way.
		dsn += "&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db, mode: mode, cfg: cfg, log: log}

	switch mode {
	case ModeWrite:
		if err := s.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	case ModeRead:
		if err := s.checkSchemaCurrent(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the session.
func (s *Store) Close() error {
	return s.db.Close()
}

// Config returns the resolved configuration the session was opened with.
func (s *Store) Config() config.Resolved { return s.cfg }

// retry runs fn, retrying with exponential backoff while the store is
// locked by a concurrent writer. This is the only automatic retry in
// the engine; every other failure surfaces immediately.
func (s *Store) retry(ctx context.Context, fn func() error) error {
	attempts := s.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = config.DefaultRetryAttempts
	}
	maxWait := time.Duration(s.cfg.RetryMaxWaitMS) * time.Millisecond
	if maxWait <= 0 {
		maxWait = config.DefaultRetryMaxWaitMS * time.Millisecond
	}

	var err error
	wait := 25 * time.Millisecond
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		s.log.Debug().Int("attempt", attempt+1).Dur("wait", wait).Msg("store locked, backing off")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
		if wait > maxWait {
			wait = maxWait
		}
	}
	return contentionErr(err)
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
