package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Table names the three tables a Store maintains. The set is
// extensible per §4.5; code highlighting gets its own table alongside
// the two named explicitly in §6 ("at minimum tables cached_tex,
// cached_dot").
type Table string

const (
	TableTex  Table = "cached_tex"
	TableDot  Table = "cached_dot"
	TableCode Table = "cached_code"
)

// Store is a sqlite-backed content-addressed cache, grounded on the
// migrate-on-open idiom used for the vault database in the example
// corpus's SQLite usage.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists. §6 requires a cache to be available in
// directory mode; a failure to open here is a Fatal diagnostic at the
// call site, not a panic.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cached_tex (
		fingerprint TEXT PRIMARY KEY,
		svg BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cached_dot (
		fingerprint TEXT PRIMARY KEY,
		svg BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cached_code (
		fingerprint TEXT PRIMARY KEY,
		html BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS compiled_mtimes (
		path TEXT PRIMARY KEY,
		mtime_unix INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached bytes for fingerprint in table, or ok=false
// if absent.
func (s *Store) Get(table Table, fingerprint string) (data []byte, ok bool, err error) {
	column, tableName, err := columnFor(table)
	if err != nil {
		return nil, false, err
	}

	row := s.db.QueryRow(fmt.Sprintf("SELECT %s FROM %s WHERE fingerprint = ?", column, tableName), fingerprint)

	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return data, true, nil
}

// Put stores data under fingerprint in table. Put is idempotent: a
// concurrent Put of the same key with identical bytes is tolerated via
// sqlite's own atomic upsert (§9 "Cache concurrency").
func (s *Store) Put(table Table, fingerprint string, data []byte) error {
	column, tableName, err := columnFor(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (fingerprint, %s) VALUES (?, ?)", tableName, column)
	_, err = s.db.Exec(query, fingerprint, data)

	return err
}

// MTime returns the modification time this path was last compiled at,
// recorded by a prior SetMTime call, for directory-mode staleness
// checks (§9 "Directory mode import tracking").
func (s *Store) MTime(path string) (t time.Time, ok bool, err error) {
	var unix int64

	row := s.db.QueryRow("SELECT mtime_unix FROM compiled_mtimes WHERE path = ?", path)
	if err := row.Scan(&unix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, err
	}

	return time.Unix(unix, 0), true, nil
}

// SetMTime records the mtime path was last compiled at.
func (s *Store) SetMTime(path string, t time.Time) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO compiled_mtimes (path, mtime_unix) VALUES (?, ?)", path, t.Unix())
	return err
}

func columnFor(table Table) (column, tableName string, err error) {
	switch table {
	case TableTex:
		return "svg", string(TableTex), nil
	case TableDot:
		return "svg", string(TableDot), nil
	case TableCode:
		return "html", string(TableCode), nil
	default:
		return "", "", fmt.Errorf("unknown cache table %q", table)
	}
}
