// Package store keeps exported refactorings in a SQLite database so that
// coverage lookups do not need to rescan the CSV.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/refindex"

	_ "modernc.org/sqlite"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS refactorings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  revision TEXT NOT NULL,
  file TEXT NOT NULL,
  ref_type TEXT NOT NULL,
  start_line INTEGER NOT NULL,
  end_line INTEGER NOT NULL
)`

const indexDDL = `CREATE INDEX IF NOT EXISTS idx_refactorings_revision_file ON refactorings(revision, file)`

const metaDDL = `CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`

// DB is a refactoring store. It implements export.Sink.
type DB struct {
	db   *sql.DB
	path string
}

// OpenDB opens or creates the store at path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	s := &DB{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) createSchema() error {
	for _, ddl := range []string{schemaDDL, indexDDL, metaDDL} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *DB) Close() error { return s.db.Close() }

// Name returns the database path.
func (s *DB) Name() string { return s.path }

// Append inserts one commit's rows in a single transaction.
func (s *DB) Append(rows []export.RevisionRefactor) error {
	if len(rows) == 0 {
		return nil
	}
	return s.insert(rows)
}

// Import inserts rows read from a CSV and records when it happened.
func (s *DB) Import(rows []export.RevisionRefactor, source string) error {
	if err := s.insert(rows); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('last_import', ?), ('last_import_source', ?)`,
		time.Now().UTC().Format(time.RFC3339), source)
	return err
}

func (s *DB) insert(rows []export.RevisionRefactor) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO refactorings (revision, file, ref_type, start_line, end_line) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Revision, r.FileName, r.RefType, r.StartLine, r.EndLine); err != nil {
			return fmt.Errorf("inserting %s: %w", r, err)
		}
	}
	return tx.Commit()
}

// Reset deletes every stored row.
func (s *DB) Reset() error {
	_, err := s.db.Exec(`DELETE FROM refactorings`)
	return err
}

// Count returns the number of stored rows.
func (s *DB) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM refactorings`).Scan(&n)
	return n, err
}

// LastImport returns the time and source of the last Import, if any.
func (s *DB) LastImport() (time.Time, string, error) {
	var when, source sql.NullString
	err := s.db.QueryRow(`SELECT value FROM _meta WHERE key = 'last_import'`).Scan(&when)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, "", nil
	}
	if err != nil {
		return time.Time{}, "", err
	}
	if err := s.db.QueryRow(`SELECT value FROM _meta WHERE key = 'last_import_source'`).Scan(&source); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, "", err
	}
	t, err := time.Parse(time.RFC3339, when.String)
	return t, source.String, err
}

// Ranges returns the refactoring ranges of file at revision in insertion order.
func (s *DB) Ranges(revision, file string) ([]refindex.LineRange, error) {
	rows, err := s.db.Query(`SELECT start_line, end_line, ref_type FROM refactorings
WHERE revision = ? AND file = ? ORDER BY id`, revision, file)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []refindex.LineRange
	for rows.Next() {
		var r refindex.LineRange
		if err := rows.Scan(&r.Start, &r.End, &r.Type); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Covers reports whether every line is inside a stored refactoring range.
func (s *DB) Covers(revision, file string, lines ...int) (bool, error) {
	ranges, err := s.Ranges(revision, file)
	if err != nil {
		return false, err
	}
	return refindex.Covered(ranges, lines), nil
}
