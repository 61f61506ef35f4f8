// Package store persists manuscripts and their append-only version history in
// SQLite. Versions are full-text snapshots; the manuscript row carries the
// current-version pointer, which only moves forward via a compare-and-set.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/sqlite-vec/engine"
	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/redlinehq/redline/db/sqliteutil"
)

var (
	// ErrNotFound indicates the manuscript or version does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrStaleBase indicates the expected parent version is no longer current;
	// the caller raced another writer and must re-read.
	ErrStaleBase = errors.New("store: stale base version")
)

// Store is a SQLite-backed manuscript store.
type Store struct {
	db            *sql.DB
	dsn           string
	ensureSchema  bool
	openedLocally bool
}

// Option configures the store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/manuscripts.db).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithEnsureSchema controls whether tables and indexes are created
// automatically.
func WithEnsureSchema(enabled bool) Option {
	return func(s *Store) { s.ensureSchema = enabled }
}

// New opens/initializes a manuscript store.
func New(opts ...Option) (*Store, error) {
	s := &Store{ensureSchema: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("store: dsn required")
		}
		db, err := engine.Open(sqliteutil.EnsurePragmas(s.dsn, true, 5000))
		if err != nil {
			return nil, err
		}
		s.db = db
		s.db.SetMaxOpenConns(4)
		s.db.SetMaxIdleConns(4)
		s.openedLocally = true
	}
	if s.ensureSchema {
		if err := s.ensureSchemaDDL(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close closes the underlying DB if Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ensureSchemaDDL(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS manuscript (
			id                 TEXT PRIMARY KEY,
			title              TEXT NOT NULL,
			author             TEXT NOT NULL DEFAULT '',
			created_at         TIMESTAMP NOT NULL,
			current_version_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id                TEXT PRIMARY KEY,
			manuscript_id     TEXT NOT NULL,
			content           TEXT NOT NULL,
			version_tag       TEXT NOT NULL,
			content_hash      TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMP NOT NULL,
			parent_version_id TEXT NOT NULL DEFAULT '',
			seq               INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS style_pref (
			manuscript_id TEXT NOT NULL,
			key           TEXT NOT NULL,
			value         TEXT NOT NULL,
			updated_at    TIMESTAMP NOT NULL,
			PRIMARY KEY (manuscript_id, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_version_manuscript ON version(manuscript_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
